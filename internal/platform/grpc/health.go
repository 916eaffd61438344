package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthProbeTimeout = time.Second
	healthMinDelay     = 100 * time.Millisecond
	healthMaxDelay     = time.Second
)

// RegisterHealth installs a health service on server reporting SERVING for
// the server itself ("") and for each of services.
func RegisterHealth(server *gogrpc.Server, services ...string) *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	for _, name := range append([]string{""}, services...) {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return hs
}

// WaitForHealth polls conn's health service for service until it reports
// SERVING. Polling backs off from 100ms to 1s; ctx bounds the whole wait.
// logf, when set, receives progress lines.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := healthpb.NewHealthClient(conn)
	for delay := healthMinDelay; ; delay = min(delay*2, healthMaxDelay) {
		status, err := probeHealth(ctx, client, service)
		switch {
		case err != nil:
			logf("waiting for gRPC health service=%q: %v", service, err)
		case status == healthpb.HealthCheckResponse_SERVING:
			logf("gRPC health SERVING service=%q", service)
			return nil
		default:
			logf("waiting for gRPC health service=%q status=%s", service, status)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func probeHealth(ctx context.Context, client healthpb.HealthClient, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	resp, err := client.Check(probeCtx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
