// Package server wires the ledger runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/status"

	platformgrpc "github.com/louisbranch/stakedrop/internal/platform/grpc"
	ledgerservice "github.com/louisbranch/stakedrop/internal/services/ledger/api/grpc/ledger"
	"github.com/louisbranch/stakedrop/internal/services/ledger/authz"
	"github.com/louisbranch/stakedrop/internal/services/ledger/engine"
	ledgersqlite "github.com/louisbranch/stakedrop/internal/services/ledger/storage/sqlite"
)

// Config holds the runtime settings of a ledger server.
type Config struct {
	Addr            string
	DBPath          string
	DefaultCapacity int
	DefaultStake    uint64
	AllowFunding    bool
	// Proofs enforces sponsor and participant proofs when non-nil.
	Proofs *authz.Verifier
}

// Server hosts the ledger gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *ledgersqlite.Store
}

// New creates a configured ledger server listening on cfg.Addr.
func New(cfg Config) (*Server, error) {
	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		dbPath = filepath.Join("data", "ledger.db")
	}
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	store, err := openLedgerStore(dbPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	ledgerEngine, err := engine.New(store, engine.WithDefaults(engine.Defaults{
		Capacity:    cfg.DefaultCapacity,
		StakeAmount: cfg.DefaultStake,
	}))
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(logFailures),
	)
	apiService := ledgerservice.NewService(ledgerEngine, store, ledgerservice.Options{
		AllowFunding: cfg.AllowFunding,
		Proofs:       cfg.Proofs,
	})
	ledgerservice.RegisterLedgerServer(grpcServer, ledgerservice.NewServer(apiService))
	healthServer := platformgrpc.RegisterHealth(grpcServer, ledgerservice.ServiceName)

	if cfg.AllowFunding {
		log.Printf("account funding is enabled")
	}
	if cfg.Proofs.Enabled() {
		log.Printf("campaign proofs are enforced")
	}
	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a ledger server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("ledger server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases ledger server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}
}

func logFailures(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		log.Printf("rpc %s failed code=%s: %s", info.FullMethod, status.Code(err), status.Convert(err).Message())
	}
	return resp, err
}

func openLedgerStore(path string) (*ledgersqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := ledgersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}
	return store, nil
}
