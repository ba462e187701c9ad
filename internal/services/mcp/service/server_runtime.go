package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/bloodroll/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/bloodroll/internal/platform/grpc"
	"github.com/louisbranch/bloodroll/internal/platform/timeouts"
	"github.com/louisbranch/bloodroll/internal/services/dice/client"
)

// healthInterval is how often the dice daemon health is polled while serving.
const healthInterval = 30 * time.Second

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	baseURL := discovery.OrDefaultHTTPBaseURL(cfg.DiceURL, discovery.ServiceDice)
	dice := client.New(baseURL, &http.Client{Timeout: 30 * time.Second})
	server, err := New(dice)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.HealthAddr) != "" {
		conn, err := dialDiceHealth(ctx, cfg.HealthAddr)
		if err != nil {
			return err
		}
		server.conn = conn
	}
	defer server.Close()

	if cfg.Transport == TransportHTTP {
		return server.serveHTTP(ctx, cfg.HTTPAddr)
	}
	return server.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveHTTP serves the streamable HTTP transport at /mcp until ctx ends.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		addr = "localhost" + discovery.ListenAddr(discovery.ServiceMCP, false)
	}

	healthCtx, healthCancel := context.WithCancel(ctx)
	defer healthCancel()
	go s.monitorHealth(healthCtx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.httpHandler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("mcp: streamable HTTP listening at %s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	}
}

func (s *Server) httpHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute})

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// monitorHealth periodically checks the dice daemon. Failures are logged
// and the MCP transport keeps serving; tool calls surface daemon errors.
func (s *Server) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkHealth(ctx)
		}
	}
}

func (s *Server) checkHealth(ctx context.Context) {
	if s.conn == nil {
		return
	}
	healthClient := grpc_health_v1.NewHealthClient(s.conn)
	callCtx, cancel := context.WithTimeout(ctx, timeouts.Request)
	response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: client.HealthService})
	cancel()

	if err != nil {
		log.Printf("mcp: dice health check failed: %v", err)
	} else if response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		log.Printf("mcp: dice health check status: %s", response.GetStatus().String())
	}
}

// Close releases the health connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

// serveWithTransport runs the MCP server over transport until the peer
// disconnects or ctx ends.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	healthCtx, healthCancel := context.WithCancel(ctx)
	defer healthCancel()
	go s.monitorHealth(healthCtx)

	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func dialDiceHealth(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	logf := func(format string, args ...any) {
		log.Printf("dice %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.AwaitServing(ctx, addr, client.HealthService, timeouts.HealthWait, logf)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) {
			if dialErr.Stage == platformgrpc.DialStageConnect {
				return nil, fmt.Errorf("connect to dice daemon at %s: %w", addr, dialErr.Err)
			}
			return nil, fmt.Errorf("dice daemon at %s is not serving: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}
