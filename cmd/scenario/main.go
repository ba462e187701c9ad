// Package main provides a CLI for running Lua dice scenarios.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/bloodroll/internal/platform/cmd"
	"github.com/louisbranch/bloodroll/internal/platform/config"

	scenariocmd "github.com/louisbranch/bloodroll/internal/cmd/scenario"
)

func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceScenario))
	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scenariocmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
