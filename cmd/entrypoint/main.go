// Package main runs the dice daemon and its MCP bridge in one container.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	entrypoint "github.com/louisbranch/bloodroll/internal/platform/cmd"
)

// shutdownTimeout is the grace period before forcing child exit.
const shutdownTimeout = 10 * time.Second

// containerConfig locates the binaries and the addresses the bridge uses.
type containerConfig struct {
	BinDir      string `env:"BLOODROLL_BIN_DIR"        envDefault:"/app"`
	ServerPort  int    `env:"BLOODROLL_SERVER_PORT"    envDefault:"8470"`
	HealthAddr  string `env:"BLOODROLL_HEALTH_ADDR"    envDefault:"127.0.0.1:8471"`
	MCPHTTPAddr string `env:"BLOODROLL_MCP_HTTP_ADDR"  envDefault:"0.0.0.0:8472"`
}

// childProcess describes a managed child command.
type childProcess struct {
	name string
	cmd  *exec.Cmd
}

// processExit reports a child process exit result.
type processExit struct {
	name string
	err  error
}

// main starts the dice daemon and the MCP HTTP bridge, then supervises them.
func main() {
	var cfg containerConfig
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}
	log.SetPrefix("[ENTRYPOINT] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverArgs, mcpArgs := childArgs(cfg)
	server, err := startChild("dice-server", exec.Command(cfg.BinDir+"/server", serverArgs...))
	if err != nil {
		log.Fatalf("failed to start dice server: %v", err)
	}
	mcp, err := startChild("mcp", exec.Command(cfg.BinDir+"/mcp", mcpArgs...))
	if err != nil {
		terminateChildren([]*childProcess{server})
		log.Fatalf("failed to start MCP server: %v", err)
	}

	children := []*childProcess{server, mcp}
	exitCh := make(chan processExit, len(children))
	go waitChild(server, exitCh)
	go waitChild(mcp, exitCh)

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		terminateChildren(children)
		waitForChildren(exitCh, len(children), shutdownTimeout, children)
		return
	case exit := <-exitCh:
		log.Printf("%s exited: %v", exit.name, exit.err)
		terminateChildren(children)
		waitForChildren(exitCh, len(children)-1, shutdownTimeout, children)
		os.Exit(exitCode(exit.err))
	}
}

// childArgs builds the flag lists for the dice daemon and the MCP bridge.
// The bridge waits on the daemon's health check before serving.
func childArgs(cfg containerConfig) ([]string, []string) {
	serverArgs := []string{
		fmt.Sprintf("-port=%d", cfg.ServerPort),
		"-health-addr=" + cfg.HealthAddr,
	}
	mcpArgs := []string{
		"-transport=http",
		"-http-addr=" + cfg.MCPHTTPAddr,
		fmt.Sprintf("-dice-url=http://127.0.0.1:%d", cfg.ServerPort),
		"-dice-health-addr=" + cfg.HealthAddr,
	}
	return serverArgs, mcpArgs
}

// startChild starts a child process with inherited stdio streams.
func startChild(name string, cmd *exec.Cmd) (*childProcess, error) {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return &childProcess{name: name, cmd: cmd}, nil
}

func waitChild(child *childProcess, exitCh chan<- processExit) {
	err := child.cmd.Wait()
	exitCh <- processExit{name: child.name, err: err}
}

// terminateChildren sends SIGTERM to all child processes.
func terminateChildren(children []*childProcess) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		_ = child.cmd.Process.Signal(syscall.SIGTERM)
	}
}

// waitForChildren waits for the remaining exits or forces shutdown.
func waitForChildren(exitCh <-chan processExit, remaining int, timeout time.Duration, children []*childProcess) {
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for remaining > 0 {
		select {
		case <-exitCh:
			remaining--
		case <-timer.C:
			forceKill(children)
			return
		}
	}
}

// forceKill sends SIGKILL to any child still running.
func forceKill(children []*childProcess) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		if child.cmd.ProcessState != nil {
			continue
		}
		_ = child.cmd.Process.Kill()
	}
}

// exitCode derives a process exit code from a wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
