// Package physics throws dice into a walled tray and reports how they land.
//
// The simulation steps at a fixed 1/60 s. Dice collide with the floor and
// walls only; a small tipping torque drives a resting die onto a face so
// every throw ends with a readable value.
package physics

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/geometry"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/resolve"
)

// Timestep is the fixed simulation step in seconds.
const Timestep = 1.0 / 60.0

// Config tunes the simulation.
type Config struct {
	DieSize          float64
	Gravity          float64
	Restitution      float64
	Friction         float64
	AngularDamping   float64
	TipStrength      float64
	HalfWidth        float64
	HalfDepth        float64
	LinearThreshold  float64
	AngularThreshold float64
	SettleFrames     int
	MaxFrames        int
}

// DefaultConfig is the tray used by the dice overlay.
func DefaultConfig() Config {
	return Config{
		DieSize:          0.5,
		Gravity:          9.8,
		Restitution:      0.35,
		Friction:         0.08,
		AngularDamping:   0.1,
		TipStrength:      40,
		HalfWidth:        6,
		HalfDepth:        4,
		LinearThreshold:  0.05,
		AngularThreshold: 0.05,
		SettleFrames:     10,
		MaxFrames:        600,
	}
}

// restingBounce is the rebound speed under which a floor hit stops dead.
const restingBounce = 0.5

// Body is one die in the world.
type Body struct {
	Index       int
	Category    resolve.Category
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
	Angular     mgl64.Vec3
	Orientation mgl64.Quat
	Settled     bool

	contact bool
	calm    int
}

// World holds the live dice of one tray.
type World struct {
	cfg    Config
	die    *geometry.D10
	rng    *rand.Rand
	bodies []*Body
	frame  int
}

// NewWorld builds an empty world. rng drives spawn positions and spins.
func NewWorld(cfg Config, rng *rand.Rand) *World {
	if cfg.SettleFrames <= 0 {
		cfg.SettleFrames = DefaultConfig().SettleFrames
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = DefaultConfig().MaxFrames
	}
	return &World{cfg: cfg, die: geometry.NewD10(cfg.DieSize), rng: rng}
}

// Die returns the shared die mesh.
func (w *World) Die() *geometry.D10 {
	return w.die
}

// Spawn throws a new die into the tray from its left edge.
func (w *World) Spawn(index int, category resolve.Category) *Body {
	r := w.rng.Float64
	b := &Body{
		Index:    index,
		Category: category,
		Position: mgl64.Vec3{
			-w.cfg.HalfWidth * (0.5 + 0.3*r()),
			3 + r(),
			w.cfg.HalfDepth * (r() - 0.5),
		},
		Velocity:    mgl64.Vec3{4 + 3*r(), 2 * r(), 4 * (r() - 0.5)},
		Angular:     mgl64.Vec3{30 * (r() - 0.5), 30 * (r() - 0.5), 30 * (r() - 0.5)},
		Orientation: uniformOrientation(r),
	}
	w.bodies = append(w.bodies, b)
	w.frame = 0
	return b
}

// uniformOrientation draws a rotation uniformly over SO(3) (Shoemake), so
// every face is equally likely to end up on top.
func uniformOrientation(r func() float64) mgl64.Quat {
	u1, u2, u3 := r(), 2*math.Pi*r(), 2*math.Pi*r()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	return mgl64.Quat{
		W: b * math.Cos(u3),
		V: mgl64.Vec3{a * math.Sin(u2), a * math.Cos(u2), b * math.Sin(u3)},
	}.Normalize()
}

// Place drops a die at rest-ready position with a fixed orientation and no
// motion.
func (w *World) Place(index int, category resolve.Category, position mgl64.Vec3, orientation mgl64.Quat) *Body {
	b := &Body{Index: index, Category: category, Position: position, Orientation: orientation}
	w.bodies = append(w.bodies, b)
	w.frame = 0
	return b
}

// Remove takes the die with index out of the world.
func (w *World) Remove(index int) (*Body, bool) {
	for i, b := range w.bodies {
		if b.Index == index {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return b, true
		}
	}
	return nil, false
}

// Reset empties the world.
func (w *World) Reset() {
	w.bodies = nil
	w.frame = 0
}

// Bodies returns the live bodies.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Body returns the die with index.
func (w *World) Body(index int) (*Body, bool) {
	for _, b := range w.bodies {
		if b.Index == index {
			return b, true
		}
	}
	return nil, false
}

// Frame returns the number of steps since the last spawn.
func (w *World) Frame() int {
	return w.frame
}

// Settled reports whether every body has come to rest.
func (w *World) Settled() bool {
	for _, b := range w.bodies {
		if !b.Settled {
			return false
		}
	}
	return true
}

// Step advances the world by one Timestep and reports whether every body
// has settled. Past MaxFrames every body is forced to rest.
func (w *World) Step() bool {
	w.frame++
	for _, b := range w.bodies {
		if !b.Settled {
			w.integrate(b)
		}
	}
	if w.frame >= w.cfg.MaxFrames {
		for _, b := range w.bodies {
			if !b.Settled {
				w.rest(b)
			}
		}
	}
	return w.Settled()
}

// Face returns the raw value (0–9) showing on a body.
func (w *World) Face(b *Body) int {
	return w.die.FaceUp(b.Orientation)
}

func (w *World) integrate(b *Body) {
	const dt = Timestep
	cfg := w.cfg

	b.Velocity = b.Velocity.Sub(mgl64.Vec3{0, cfg.Gravity * dt, 0})
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	spin := mgl64.Quat{W: 0, V: b.Angular}
	b.Orientation = b.Orientation.Add(spin.Mul(b.Orientation).Scale(0.5 * dt)).Normalize()

	lowest := b.Position.Y() + w.die.Lowest(b.Orientation)
	b.contact = lowest <= 1e-3
	if lowest < 0 {
		b.Position[1] -= lowest
		if b.Velocity.Y() < 0 {
			b.Velocity[1] = -b.Velocity.Y() * cfg.Restitution
			if b.Velocity.Y() < restingBounce {
				b.Velocity[1] = 0
			}
		}
		b.Velocity[0] *= 1 - cfg.Friction
		b.Velocity[2] *= 1 - cfg.Friction
		b.Angular = b.Angular.Mul(1 - cfg.AngularDamping)

		// Tip toward the face that is closest to up.
		normal := b.Orientation.Rotate(w.die.UpFace(b.Orientation).Normal)
		b.Angular = b.Angular.Add(normal.Cross(geometry.Up).Mul(cfg.TipStrength * dt))
	}

	w.bounceWall(b, 0, cfg.HalfWidth)
	w.bounceWall(b, 2, cfg.HalfDepth)

	if b.contact && b.Velocity.Len() < cfg.LinearThreshold && b.Angular.Len() < cfg.AngularThreshold {
		b.calm++
	} else {
		b.calm = 0
	}
	if b.calm >= cfg.SettleFrames {
		w.rest(b)
	}
}

func (w *World) bounceWall(b *Body, axis int, half float64) {
	limit := half - w.die.Radius
	switch {
	case b.Position[axis] > limit:
		b.Position[axis] = limit
		if b.Velocity[axis] > 0 {
			b.Velocity[axis] = -b.Velocity[axis] * w.cfg.Restitution
		}
	case b.Position[axis] < -limit:
		b.Position[axis] = -limit
		if b.Velocity[axis] < 0 {
			b.Velocity[axis] = -b.Velocity[axis] * w.cfg.Restitution
		}
	}
}

func (w *World) rest(b *Body) {
	b.Orientation = w.die.Rest(b.Orientation)
	b.Position[1] = -w.die.Lowest(b.Orientation)
	b.Velocity = mgl64.Vec3{}
	b.Angular = mgl64.Vec3{}
	b.Settled = true
}
