package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/louisbranch/bloodroll/internal/systems/vtm/content"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
)

// Config controls scenario execution.
type Config struct {
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// Catalog defaults to the embedded reference content.
	Catalog *content.Catalog
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
		Verbose:    false,
	}
}

// Runner executes Lua scenarios against an in-process dice overlay whose
// faces come from the script.
type Runner struct {
	catalog    *content.Catalog
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
}

// NewRunner prepares a scenario runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = content.Default()
	}

	return &Runner{
		catalog:    catalog,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
	}
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return NewRunner(cfg).RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order. Each scenario starts
// from an empty sheet store.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))

	summaries := &summaryRecorder{}
	state := &scenarioState{
		store:      sheet.NewMemoryStore(),
		resolver:   overlay.NewScriptedResolver(nil),
		dispatcher: effects.NewDispatcher(summaries, 0, nil, nil),
		summaries:  summaries,
	}
	defer state.dispatcher.Wait()

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: step %d (%s): %w", scenario.Name, stepNumber, step.Kind, err)
		}
		if state.lastErr != nil && !expectsError(scenario.Steps, index+1) {
			return fmt.Errorf("%s: step %d (%s): %w", scenario.Name, stepNumber, step.Kind, state.lastErr)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

// expectsError reports whether the step at index is an expect block that
// checks the previous step's refusal.
func expectsError(steps []Step, index int) bool {
	if index >= len(steps) || steps[index].Kind != "expect" {
		return false
	}
	_, ok := steps[index].Args["error"]
	return ok
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
