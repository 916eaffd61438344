package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	platformgrpc "github.com/louisbranch/stakedrop/internal/platform/grpc"
	"github.com/louisbranch/stakedrop/internal/platform/timeouts"
	ledgerapi "github.com/louisbranch/stakedrop/internal/services/ledger/api/grpc/ledger"
	"github.com/louisbranch/stakedrop/internal/services/mcp/domain"
)

const (
	serverName    = "stakedrop MCP"
	serverVersion = "0.1.0"

	healthCheckInterval  = 30 * time.Second
	healthCheckTimeout   = 5 * time.Second
	defaultHTTPAddr      = "localhost:8096"
	defaultLedgerAddress = "localhost:8095"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	LedgerAddr string
	Transport  TransportKind
	// HTTPAddr is the listen address for the HTTP transport.
	HTTPAddr string
}

// Server hosts the MCP server bound to one ledger connection.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// newServer registers the airdrop tools and resources against client.
func newServer(client domain.LedgerClient, conn *grpc.ClientConn) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	notify := func(ctx context.Context, uri string) {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}
	registerAirdropTools(mcpServer, client, notify)
	registerAirdropResources(mcpServer, client)
	return &Server{mcpServer: mcpServer, conn: conn}
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg.LedgerAddr, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runWithTransport dials the ledger and serves MCP over transport.
func runWithTransport(ctx context.Context, ledgerAddr string, transport mcp.Transport) error {
	conn, err := dialLedger(ctx, ledgerAddr)
	if err != nil {
		return err
	}
	server := newServer(ledgerapi.NewClient(conn), conn)
	return server.serveWithTransport(ctx, transport)
}

// runWithHTTPTransport dials the ledger and serves MCP over streamable HTTP.
func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	conn, err := dialLedger(ctx, cfg.LedgerAddr)
	if err != nil {
		return err
	}
	server := newServer(ledgerapi.NewClient(conn), conn)
	defer server.Close()

	healthCtx, healthCancel := context.WithCancel(ctx)
	defer healthCancel()
	go server.monitorHealth(healthCtx)

	return serveHTTP(ctx, httpAddr, server.mcpServer)
}

// serveWithTransport runs the MCP session loop and closes the ledger
// connection on exit.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// monitorHealth logs ledger health failures while the HTTP transport runs.
func (s *Server) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.conn == nil {
				log.Printf("ledger connection is nil, health check skipped")
				continue
			}
			healthClient := grpc_health_v1.NewHealthClient(s.conn)
			callCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: ledgerapi.ServiceName})
			cancel()
			if err != nil {
				log.Printf("ledger health check failed: %v", err)
			} else if response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
				log.Printf("ledger health check status: %s", response.GetStatus().String())
			}
		}
	}
}

// Close releases the ledger connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

func dialLedger(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = defaultLedgerAddress
	}
	conn, err := platformgrpc.DialWithHealth(ctx, platformgrpc.DialConfig{
		Addr:    addr,
		Service: ledgerapi.ServiceName,
		Timeout: timeouts.GRPCDial,
		Logf: func(format string, args ...any) {
			log.Printf("ledger %s", fmt.Sprintf(format, args...))
		},
	})
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to ledger at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}
