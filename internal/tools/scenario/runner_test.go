package scenario

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"
)

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	return cfg
}

func runSource(t *testing.T, cfg Config, src string) error {
	t.Helper()
	scenario, err := LoadScenario("inline.lua", src)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	return NewRunner(cfg).RunScenario(context.Background(), scenario)
}

func TestBuiltinScenariosPass(t *testing.T) {
	names := Builtin()
	if len(names) < 4 {
		t.Fatalf("builtin scenarios = %v, want at least 4", names)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadBuiltin(name)
			if err != nil {
				t.Fatalf("load %s: %v", name, err)
			}
			if err := NewRunner(quietConfig()).RunScenario(context.Background(), scenario); err != nil {
				t.Fatalf("run %s: %v", name, err)
			}
		})
	}
}

func TestRunBuiltin(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Logger = log.New(&out, "", 0)
	if err := RunBuiltin(context.Background(), cfg); err != nil {
		t.Fatalf("RunBuiltin: %v", err)
	}
	if !strings.Contains(out.String(), "ok   standard pool") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestLoadBuiltinUnknown(t *testing.T) {
	if _, err := LoadBuiltin("missing_scenario"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

const failingExpectation = `
local scene = Scenario("wrong")
scene:sheet{name = "Ada", hunger = 1, attributes = {Strength = 2}}
scene:select{first = "Strength"}
scene:force{6, 6}
scene:roll()
scene:expect{successes = 5}
scene:expect{hunger = 1}
return scene
`

func TestRunnerFailsOnUnmetExpectation(t *testing.T) {
	err := runSource(t, quietConfig(), failingExpectation)
	if err == nil || !strings.Contains(err.Error(), "successes = 2, want 5") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "wrong: step 5 (expect)") {
		t.Fatalf("err = %v, want step context", err)
	}
}

func TestLogOnlyModeKeepsGoing(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Assertions = AssertionLogOnly
	cfg.Logger = log.New(&out, "", 0)

	if err := runSource(t, cfg, failingExpectation); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "expectation failed: successes = 2, want 5") {
		t.Fatalf("log = %q", out.String())
	}
}

func TestRunnerFailsOnUnexpectedRefusal(t *testing.T) {
	err := runSource(t, quietConfig(), `
local scene = Scenario("refused")
scene:sheet{name = "Ada", attributes = {Strength = 2}}
scene:reroll()
return scene
`)
	if err == nil || !strings.Contains(err.Error(), "nothing to reroll") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunnerRequiresSheetFirst(t *testing.T) {
	err := runSource(t, quietConfig(), `
local scene = Scenario("no sheet")
scene:roll()
return scene
`)
	if err == nil || !strings.Contains(err.Error(), "a sheet step must come first") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunnerRejectsUnknownExpectation(t *testing.T) {
	err := runSource(t, quietConfig(), `
local scene = Scenario("typo")
scene:sheet{name = "Ada"}
scene:expect{hungre = 1}
return scene
`)
	if err == nil || !strings.Contains(err.Error(), `unknown expectation "hungre"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunnerFailsWhenFacesRunOut(t *testing.T) {
	err := runSource(t, quietConfig(), `
local scene = Scenario("short")
scene:sheet{name = "Ada", attributes = {Strength = 2}}
scene:select{first = "Strength"}
scene:force{6}
scene:roll()
return scene
`)
	if err == nil || !strings.Contains(err.Error(), "scripted faces exhausted") {
		t.Fatalf("err = %v", err)
	}
}

func TestVerboseLogsSteps(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Verbose = true
	cfg.Logger = log.New(&out, "", 0)

	if err := runSource(t, cfg, `
local scene = Scenario("loud")
scene:sheet{name = "Ada"}
return scene
`); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"scenario start: loud (1 steps)", "step 1/1 done: sheet", "scenario done: loud"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("log %q missing %q", out.String(), want)
		}
	}
}
