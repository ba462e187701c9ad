// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/bloodroll/internal/platform/cmd"
	"github.com/louisbranch/bloodroll/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	DiceURL    string `env:"BLOODROLL_DICE_URL"          envDefault:"http://localhost:8470"`
	HealthAddr string `env:"BLOODROLL_DICE_HEALTH_ADDR"`
	HTTPAddr   string `env:"BLOODROLL_MCP_HTTP_ADDR"     envDefault:"localhost:8472"`
	Transport  string `env:"BLOODROLL_MCP_TRANSPORT"     envDefault:"stdio"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DiceURL, "dice-url", cfg.DiceURL, "dice daemon HTTP base URL")
	fs.StringVar(&cfg.HealthAddr, "dice-health-addr", cfg.HealthAddr, "dice daemon gRPC health address (empty skips the wait)")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		if err := service.Run(ctx, service.Config{
			DiceURL:    cfg.DiceURL,
			HealthAddr: cfg.HealthAddr,
			Transport:  service.TransportKind(cfg.Transport),
			HTTPAddr:   cfg.HTTPAddr,
		}); err != nil {
			return fmt.Errorf("serve mcp: %w", err)
		}
		return nil
	})
}
