package mcp

import (
	"context"
	"flag"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DiceURL != "http://localhost:8470" {
		t.Fatalf("expected default dice url, got %q", cfg.DiceURL)
	}
	if cfg.HTTPAddr != "localhost:8472" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected default transport, got %q", cfg.Transport)
	}
	if cfg.HealthAddr != "" {
		t.Fatalf("expected empty health addr, got %q", cfg.HealthAddr)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("BLOODROLL_DICE_URL", "http://env-dice:8470")
	t.Setenv("BLOODROLL_MCP_TRANSPORT", "http")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-dice-health-addr", "dice:8471", "-http-addr", "flag-http"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DiceURL != "http://env-dice:8470" {
		t.Fatalf("expected env dice url, got %q", cfg.DiceURL)
	}
	if cfg.Transport != "http" {
		t.Fatalf("expected env transport, got %q", cfg.Transport)
	}
	if cfg.HealthAddr != "dice:8471" {
		t.Fatalf("expected flag health addr, got %q", cfg.HealthAddr)
	}
	if cfg.HTTPAddr != "flag-http" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	err := Run(context.Background(), Config{Transport: "carrier-pigeon"})
	if err == nil || !strings.Contains(err.Error(), `transport "carrier-pigeon" is not supported`) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
