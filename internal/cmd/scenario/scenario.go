// Package scenario parses scenario command flags and runs Lua dice scenarios.
package scenario

import (
	"context"
	"flag"
	"io"
	"log"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/bloodroll/internal/platform/cmd"
	"github.com/louisbranch/bloodroll/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string        `env:"BLOODROLL_SCENARIO_FILE"`
	Builtin    string        `env:"BLOODROLL_SCENARIO_BUILTIN"`
	Assertions bool          `env:"BLOODROLL_SCENARIO_ASSERT"   envDefault:"true"`
	Verbose    bool          `env:"BLOODROLL_SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"BLOODROLL_SCENARIO_TIMEOUT"  envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.Builtin, "builtin", cfg.Builtin, "name of an embedded scenario (default: all)")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes a scenario file, one embedded scenario, or all of them.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}
	runCfg := scenario.Config{
		Timeout:    cfg.Timeout,
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     log.New(errOut, "", 0),
	}
	report := log.New(out, "", 0)

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		if path := strings.TrimSpace(cfg.Scenario); path != "" {
			if err := scenario.RunFile(ctx, runCfg, path); err != nil {
				return err
			}
			report.Printf("ok   %s", path)
			return nil
		}
		if name := strings.TrimSpace(cfg.Builtin); name != "" {
			loaded, err := scenario.LoadBuiltin(name)
			if err != nil {
				return err
			}
			if err := scenario.NewRunner(runCfg).RunScenario(ctx, loaded); err != nil {
				return err
			}
			report.Printf("ok   %s", loaded.Name)
			return nil
		}
		runCfg.Logger = report
		return scenario.RunBuiltin(ctx, runCfg)
	})
}
