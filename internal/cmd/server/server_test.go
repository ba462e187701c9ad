package server

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8470 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.HealthAddr != ":8471" {
		t.Fatalf("expected default health addr, got %q", cfg.HealthAddr)
	}
	if cfg.DBPath != "bloodroll.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.DiscordUsername != "Bloodroll" {
		t.Fatalf("expected default discord username, got %q", cfg.DiscordUsername)
	}
	if cfg.Resolver != "tray" {
		t.Fatalf("expected default tray resolver, got %q", cfg.Resolver)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("BLOODROLL_SERVER_PORT", "9000")
	t.Setenv("BLOODROLL_SHEETS_DIR", "env-sheets")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	args := []string{"-db", ":memory:", "-seed", "42", "-tray-pace", "16ms", "-health-addr", "127.0.0.1:9001"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected env port, got %d", cfg.Port)
	}
	if cfg.SheetsDir != "env-sheets" {
		t.Fatalf("expected env sheets dir, got %q", cfg.SheetsDir)
	}
	if cfg.DBPath != ":memory:" || cfg.Seed != 42 {
		t.Fatalf("expected flag db and seed, got %+v", cfg)
	}
	if cfg.TrayPace != 16*time.Millisecond {
		t.Fatalf("expected flag tray pace, got %v", cfg.TrayPace)
	}
	if cfg.HealthAddr != "127.0.0.1:9001" {
		t.Fatalf("expected flag health addr, got %q", cfg.HealthAddr)
	}
}

func TestParseConfigRejectsBadPort(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	_, err := ParseConfig(fs, []string{"-port", "70000"})
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected port error, got %v", err)
	}
}

func TestParseConfigResolver(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "env random", env: "random", want: "random"},
		{name: "flag wins", env: "random", args: []string{"-resolver", "tray"}, want: "tray"},
		{name: "unknown", args: []string{"-resolver", "coin"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("BLOODROLL_RESOLVER", tt.env)
			}
			fs := flag.NewFlagSet("server", flag.ContinueOnError)
			cfg, err := ParseConfig(fs, tt.args)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "unknown resolver") {
					t.Fatalf("expected resolver error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse config: %v", err)
			}
			if cfg.Resolver != tt.want {
				t.Fatalf("resolver = %q, want %q", cfg.Resolver, tt.want)
			}
		})
	}
}
