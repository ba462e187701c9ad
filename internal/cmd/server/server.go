// Package server parses dice daemon flags and starts the HTTP API.
package server

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/bloodroll/internal/platform/cmd"
	"github.com/louisbranch/bloodroll/internal/platform/discovery"
	"github.com/louisbranch/bloodroll/internal/services/dice/app"
)

// Config holds dice daemon configuration.
type Config struct {
	Port              int           `env:"BLOODROLL_SERVER_PORT"           envDefault:"8470"`
	HealthAddr        string        `env:"BLOODROLL_HEALTH_ADDR"`
	SheetsDir         string        `env:"BLOODROLL_SHEETS_DIR"`
	DBPath            string        `env:"BLOODROLL_DB_PATH"               envDefault:"bloodroll.db"`
	DiscordWebhookURL string        `env:"BLOODROLL_DISCORD_WEBHOOK_URL"`
	DiscordUsername   string        `env:"BLOODROLL_DISCORD_USERNAME"      envDefault:"Bloodroll"`
	Resolver          string        `env:"BLOODROLL_RESOLVER"              envDefault:"tray"`
	Seed              int64         `env:"BLOODROLL_SEED"`
	TrayPace          time.Duration `env:"BLOODROLL_TRAY_PACE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address")
	fs.StringVar(&cfg.SheetsDir, "sheets", cfg.SheetsDir, "directory of character sheet YAML files")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "roll journal SQLite path")
	fs.StringVar(&cfg.DiscordWebhookURL, "discord-webhook", cfg.DiscordWebhookURL, "Discord webhook URL for roll summaries")
	fs.StringVar(&cfg.Resolver, "resolver", cfg.Resolver, "face resolver: tray or random")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "dice tray seed (0 picks one per roll)")
	fs.DurationVar(&cfg.TrayPace, "tray-pace", cfg.TrayPace, "delay between streamed physics frames")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if _, err := app.SelectResolvers(cfg.Resolver, 0, 0); err != nil {
		return Config{}, err
	}
	if cfg.HealthAddr == "" {
		cfg.HealthAddr = discovery.ListenAddr(discovery.ServiceDice, true)
	}
	return cfg, nil
}

// Run builds the dice daemon and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		if err := app.Run(ctx, app.Config{
			HTTPAddr:          fmt.Sprintf(":%d", cfg.Port),
			HealthAddr:        cfg.HealthAddr,
			SheetsDir:         cfg.SheetsDir,
			DBPath:            cfg.DBPath,
			DiscordWebhookURL: cfg.DiscordWebhookURL,
			DiscordUsername:   cfg.DiscordUsername,
			Resolver:          cfg.Resolver,
			Seed:              cfg.Seed,
			TrayPace:          cfg.TrayPace,
		}); err != nil {
			return fmt.Errorf("serve dice: %w", err)
		}
		return nil
	})
}
