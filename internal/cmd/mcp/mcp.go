// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/stakedrop/internal/platform/cmd"
	mcpservice "github.com/louisbranch/stakedrop/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	LedgerAddr string `env:"LEDGER_ADDR"     envDefault:"localhost:8095"`
	HTTPAddr   string `env:"MCP_HTTP_ADDR"   envDefault:"localhost:8096"`
	Transport  string `env:"MCP_TRANSPORT"   envDefault:"stdio"`
}

// Validate rejects unknown transports before any connection is attempted.
func (c *Config) Validate() error {
	switch mcpservice.TransportKind(c.Transport) {
	case mcpservice.TransportStdio, mcpservice.TransportHTTP:
		return nil
	default:
		return fmt.Errorf("transport %q is not supported", c.Transport)
	}
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.LedgerAddr, "ledger-addr", cfg.LedgerAddr, "ledger gRPC server address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			LedgerAddr: cfg.LedgerAddr,
			HTTPAddr:   cfg.HTTPAddr,
			Transport:  mcpservice.TransportKind(cfg.Transport),
		})
	})
}
