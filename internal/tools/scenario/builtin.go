package scenario

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed scenarios/*.lua
var builtinFS embed.FS

// Builtin lists the embedded regression scenarios by file name.
func Builtin() []string {
	entries, err := fs.ReadDir(builtinFS, "scenarios")
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if path.Ext(entry.Name()) == ".lua" {
			names = append(names, strings.TrimSuffix(entry.Name(), ".lua"))
		}
	}
	sort.Strings(names)
	return names
}

// LoadBuiltin loads an embedded scenario by name.
func LoadBuiltin(name string) (*Scenario, error) {
	src, err := builtinFS.ReadFile(path.Join("scenarios", name+".lua"))
	if err != nil {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return LoadScenario(name+".lua", string(src))
}

// RunBuiltin runs every embedded scenario and returns the first failure.
func RunBuiltin(ctx context.Context, cfg Config) error {
	runner := NewRunner(cfg)
	for _, name := range Builtin() {
		scenario, err := LoadBuiltin(name)
		if err != nil {
			return err
		}
		if err := runner.RunScenario(ctx, scenario); err != nil {
			return err
		}
		runner.logger.Printf("ok   %s", scenario.Name)
	}
	return nil
}
