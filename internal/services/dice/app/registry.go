package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/bloodroll/internal/random"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/bus"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/content"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/physics"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
)

// ResolverFactory builds the face resolver behind one character's overlay.
type ResolverFactory func(characterID string, events *bus.Bus) overlay.FaceResolver

// Resolver names accepted by SelectResolvers.
const (
	ResolverTray   = "tray"
	ResolverRandom = "random"
)

// SelectResolvers returns the factory named by kind. An empty kind picks the
// physics tray.
func SelectResolvers(kind string, seed int64, pace time.Duration) (ResolverFactory, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", ResolverTray:
		return TrayResolvers(physics.DefaultConfig(), seed, pace), nil
	case ResolverRandom:
		return RandomResolvers(seed), nil
	default:
		return nil, fmt.Errorf("unknown resolver %q (want %s or %s)", kind, ResolverTray, ResolverRandom)
	}
}

// TrayResolvers returns a factory that rolls every character's dice on its
// own physics tray and publishes each frame on the bus. A zero seed draws a
// fresh seed per tray; otherwise each tray is seeded from seed and the
// character id.
func TrayResolvers(cfg physics.Config, seed int64, pace time.Duration) ResolverFactory {
	return func(characterID string, events *bus.Bus) overlay.FaceResolver {
		return physics.NewTray(cfg, characterSource("tray", characterID, seed),
			physics.WithPace(pace),
			physics.WithFrames(func(f physics.Frame) {
				events.Publish(bus.TopicFrame, characterID, f)
			}),
		)
	}
}

// RandomResolvers returns a factory that draws faces straight from a random
// source with no tray and no frames. Seeding follows TrayResolvers.
func RandomResolvers(seed int64) ResolverFactory {
	return func(characterID string, _ *bus.Bus) overlay.FaceResolver {
		return overlay.NewRandomResolver(characterSource("random resolver", characterID, seed))
	}
}

func characterSource(kind, characterID string, seed int64) *rand.Rand {
	if seed != 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(characterID))
		seed ^= int64(h.Sum64() >> 1)
	}
	rng, used, err := random.NewSource(seed)
	if err != nil {
		log.Printf("dice: seed %s for %s: %v", kind, characterID, err)
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log.Printf("dice: %s for %s seeded with %d", kind, characterID, used)
	return rng
}

// Registry hands out one overlay controller per character, built on first use.
type Registry struct {
	sheets     *sheet.MemoryStore
	catalog    *content.Catalog
	dispatcher *effects.Dispatcher
	events     *bus.Bus
	resolvers  ResolverFactory
	clock      func() time.Time

	mu          sync.Mutex
	controllers map[string]*overlay.Controller
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Catalog    *content.Catalog
	Dispatcher *effects.Dispatcher
	Bus        *bus.Bus
	Resolvers  ResolverFactory
	Clock      func() time.Time
}

// NewRegistry builds a registry over the sheet store.
func NewRegistry(sheets *sheet.MemoryStore, opts RegistryOptions) *Registry {
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = &effects.Dispatcher{}
	}
	if opts.Resolvers == nil {
		opts.Resolvers = TrayResolvers(physics.DefaultConfig(), 0, 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Registry{
		sheets:      sheets,
		catalog:     opts.Catalog,
		dispatcher:  opts.Dispatcher,
		events:      opts.Bus,
		resolvers:   opts.Resolvers,
		clock:       opts.Clock,
		controllers: make(map[string]*overlay.Controller),
	}
}

// Sheets returns the backing sheet store.
func (r *Registry) Sheets() *sheet.MemoryStore {
	return r.sheets
}

// Controller returns the overlay controller for characterID.
func (r *Registry) Controller(ctx context.Context, characterID string) (*overlay.Controller, error) {
	sh, err := r.sheets.Get(ctx, characterID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[characterID]; ok {
		return c, nil
	}
	c := overlay.NewController(sh, overlay.Options{
		Catalog:    r.catalog,
		Resolver:   r.resolvers(characterID, r.events),
		Dispatcher: r.dispatcher,
		Bus:        r.events,
		Clock:      r.clock,
	})
	r.controllers[characterID] = c
	return c, nil
}
