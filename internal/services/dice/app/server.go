package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/bloodroll/internal/platform/grpc"
	"github.com/louisbranch/bloodroll/internal/platform/timeouts"
	"github.com/louisbranch/bloodroll/internal/services/dice/client"
	"github.com/louisbranch/bloodroll/internal/services/dice/notify"
	"github.com/louisbranch/bloodroll/internal/services/dice/storage/sqlite"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/bus"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
)

// Config defines the inputs for the dice daemon.
type Config struct {
	HTTPAddr          string
	HealthAddr        string
	SheetsDir         string
	DBPath            string
	DiscordWebhookURL string
	DiscordUsername   string
	Resolver          string
	Seed              int64
	TrayPace          time.Duration
	NotifyTimeout     time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the dice HTTP API and its gRPC health check.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	health          *platformgrpc.HealthServer
	journal         *sqlite.Store
	dispatcher      *effects.Dispatcher
}

// NewServer loads the sheets, opens the roll journal and wires the overlay
// controllers to the notifiers.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = timeouts.Notify
	}
	if strings.TrimSpace(config.DBPath) == "" {
		config.DBPath = ":memory:"
	}

	resolvers, err := SelectResolvers(config.Resolver, config.Seed, config.TrayPace)
	if err != nil {
		return nil, err
	}

	var characters []sheet.Character
	if dir := strings.TrimSpace(config.SheetsDir); dir != "" {
		loaded, err := sheet.LoadDir(os.DirFS(dir))
		if err != nil {
			return nil, fmt.Errorf("load sheets: %w", err)
		}
		characters = loaded
	}
	log.Printf("dice: loaded %d character sheets", len(characters))

	journal, err := sqlite.Open(ctx, config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open roll journal: %w", err)
	}

	notifiers := notify.Fanout{notify.NewJournal(journal)}
	if webhook := strings.TrimSpace(config.DiscordWebhookURL); webhook != "" {
		discord, err := notify.NewDiscord(webhook, config.DiscordUsername)
		if err != nil {
			_ = journal.Close()
			return nil, fmt.Errorf("discord notifier: %w", err)
		}
		notifiers = append(notifiers, discord)
	}
	dispatcher := effects.NewDispatcher(notifiers, config.NotifyTimeout, nil, nil)

	events := bus.New()
	registry := NewRegistry(sheet.NewMemoryStore(characters...), RegistryOptions{
		Dispatcher: dispatcher,
		Bus:        events,
		Resolvers:  resolvers,
	})

	var health *platformgrpc.HealthServer
	if addr := strings.TrimSpace(config.HealthAddr); addr != "" {
		health, err = platformgrpc.NewHealthServer(addr)
		if err != nil {
			_ = journal.Close()
			return nil, err
		}
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           NewHandler(registry, journal, events),
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
		health:     health,
		journal:    journal,
		dispatcher: dispatcher,
	}, nil
}

// ListenAndServe serves HTTP and health until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("dice server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	healthDone := make(chan error, 1)
	if s.health != nil {
		go func() {
			healthDone <- s.health.Serve(ctx)
		}()
		s.health.SetServing("", true)
		s.health.SetServing(client.HealthService, true)
		log.Printf("dice health listening on %s", s.health.Addr())
	} else {
		healthDone <- nil
	}

	serveErr := make(chan error, 1)
	log.Printf("dice server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.shutdownTimeout)
		if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			err = fmt.Errorf("shutdown http server: %w", shutdownErr)
		}
		cancelShutdown()
	case httpErr := <-serveErr:
		if !errors.Is(httpErr, http.ErrServerClosed) {
			err = fmt.Errorf("serve http: %w", httpErr)
		}
	}
	cancel()
	if healthErr := <-healthDone; healthErr != nil && err == nil {
		err = healthErr
	}
	return err
}

// Close waits for pending notifications and closes the journal.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			log.Printf("close roll journal: %v", err)
		}
	}
}

// Run builds the dice server and serves until ctx ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(ctx, config)
	if err != nil {
		return err
	}
	defer server.Close()
	return server.ListenAndServe(ctx)
}
