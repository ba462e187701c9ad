// Package cmd holds the startup plumbing shared by the bloodroll commands:
// env-then-flag config parsing and a telemetry-wrapped run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/bloodroll/internal/platform/config"
	"github.com/louisbranch/bloodroll/internal/platform/otel"
	"github.com/louisbranch/bloodroll/internal/platform/timeouts"
)

// Service names used for telemetry and log prefixes.
const (
	ServiceServer   = "server"
	ServiceMCP      = "mcp"
	ServiceScenario = "scenario"
)

// LogPrefix returns the bracketed log prefix used by a service's main.
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// ParseConfig loads BLOODROLL_* environment defaults into cfg. Flags parsed
// afterwards with ParseArgs override them.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags. Nil args parse as empty so tests do
// not pick up the test binary's own flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry sets up tracing for service, runs it, and flushes spans
// once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s: flush telemetry: %v", service, err)
		}
	}()
	return run(ctx)
}
