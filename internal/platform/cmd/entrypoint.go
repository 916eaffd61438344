// Package cmd holds the startup plumbing shared by the stakedrop binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/louisbranch/stakedrop/internal/platform/config"
	"github.com/louisbranch/stakedrop/internal/platform/otel"
)

// Binary names, used for log prefixes and telemetry service names.
const (
	ServiceLedger   = "ledger"
	ServiceMCP      = "mcp"
	ServiceProofKey = "proof-key"
)

const telemetryShutdownTimeout = 5 * time.Second

// LogPrefix formats service as a bracketed, upper-cased log prefix.
func LogPrefix(service string) string {
	return fmt.Sprintf("[%s] ", strings.ToUpper(strings.TrimSpace(service)))
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ParseConfig fills cfg from STAKEDROP_ environment variables.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs; flags registered with env-derived defaults
// therefore override the environment.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	return fs.Parse(append([]string(nil), args...))
}

// RunWithTelemetry installs the tracer provider for service, runs run, and
// flushes telemetry once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	if service = strings.TrimSpace(service); service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}

// Exitf prints a fatal message to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, os.Exit, format, args...)
}

func exitf(w io.Writer, exit func(int), format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
	exit(1)
}
