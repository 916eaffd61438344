// Package ledger parses ledger service flags and launches the service.
package ledger

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"time"

	entrypoint "github.com/louisbranch/stakedrop/internal/platform/cmd"
	server "github.com/louisbranch/stakedrop/internal/services/ledger/app"
	"github.com/louisbranch/stakedrop/internal/services/ledger/authz"
)

// Config holds ledger command configuration.
type Config struct {
	Port            int    `env:"LEDGER_PORT" envDefault:"8095"`
	DBPath          string `env:"LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	DefaultCapacity int    `env:"LEDGER_DEFAULT_CAPACITY" envDefault:"10"`
	DefaultStake    uint64 `env:"LEDGER_DEFAULT_STAKE" envDefault:"1000000000"`
	AllowFunding    bool   `env:"LEDGER_ALLOW_FUNDING" envDefault:"false"`
}

// Validate checks campaign defaults after env and flags are applied.
func (c *Config) Validate() error {
	if c.DefaultCapacity < 1 {
		return errors.New("default capacity must be at least 1")
	}
	if c.DefaultStake == 0 {
		return errors.New("default stake must be at least 1")
	}
	// A full default roster's escrow must stay within the ledger amount range.
	if limit := uint64(math.MaxInt64) / uint64(c.DefaultCapacity); c.DefaultStake > limit {
		return fmt.Errorf("default stake must not exceed %d for a default capacity of %d", limit, c.DefaultCapacity)
	}
	return nil
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The ledger gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the ledger SQLite database")
	fs.IntVar(&cfg.DefaultCapacity, "default-capacity", cfg.DefaultCapacity, "Roster capacity for campaigns that do not set one")
	fs.Uint64Var(&cfg.DefaultStake, "default-stake", cfg.DefaultStake, "Stake amount for campaigns that do not set one")
	fs.BoolVar(&cfg.AllowFunding, "allow-funding", cfg.AllowFunding, "Enable the FundAccount development RPC")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the ledger gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	proofCfg, enabled, err := authz.LoadConfigFromEnv(time.Now)
	if err != nil {
		return fmt.Errorf("load proof config: %w", err)
	}
	var proofs *authz.Verifier
	if enabled {
		proofs = authz.NewVerifier(proofCfg)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, func(ctx context.Context) error {
		return server.Run(ctx, serverConfig(cfg, proofs))
	})
}

func serverConfig(cfg Config, proofs *authz.Verifier) server.Config {
	return server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Port),
		DBPath:          cfg.DBPath,
		DefaultCapacity: cfg.DefaultCapacity,
		DefaultStake:    cfg.DefaultStake,
		AllowFunding:    cfg.AllowFunding,
		Proofs:          proofs,
	}
}
