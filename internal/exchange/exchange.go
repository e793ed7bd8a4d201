// Package exchange holds the state shared between the integrator loop and
// the consumer that displays it.
//
// Locking discipline:
//
//   - the snapshot is guarded by an RWMutex and deep copied on both publish
//     and read, so a reader never sees a partially written body list
//   - the pending reseed slot is guarded by its own Mutex; it holds at most
//     one seed and a newer request overwrites an unconsumed older one
//   - the tick counter and the pause flag are atomics
//
// An Exchange is created before the loop starts and handed to both sides.
package exchange

import (
	"sync"
	"sync/atomic"

	"github.com/san-kum/orbitsim/internal/physics"
)

// Snapshot is an immutable copy of the bodies at the end of a completed tick.
type Snapshot struct {
	Seed   uint64
	Tick   uint64
	Bodies []physics.Body
}

type Exchange struct {
	mu       sync.RWMutex
	snapshot Snapshot
	has      bool

	seedMu  sync.Mutex
	seed    uint64
	pending bool

	tick   atomic.Uint64
	paused atomic.Bool
}

func New() *Exchange {
	return &Exchange{}
}

// Publish stores a copy of bodies as the latest snapshot.
func (e *Exchange) Publish(seed, tick uint64, bodies []physics.Body) {
	snap := Snapshot{
		Seed:   seed,
		Tick:   tick,
		Bodies: cloneBodies(bodies),
	}

	e.mu.Lock()
	e.snapshot = snap
	e.has = true
	e.mu.Unlock()
}

// Snapshot returns a copy of the latest snapshot, or false before the first
// tick has been published.
func (e *Exchange) Snapshot() (Snapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.has {
		return Snapshot{}, false
	}
	snap := e.snapshot
	snap.Bodies = cloneBodies(e.snapshot.Bodies)
	return snap, true
}

func (e *Exchange) Tick() uint64 { return e.tick.Load() }

// IncTick advances the counter and returns the new value.
func (e *Exchange) IncTick() uint64 { return e.tick.Add(1) }

// ResetTick sets the counter back to zero. The integrator keeps counting from
// there; it holds no tick state of its own.
func (e *Exchange) ResetTick() { e.tick.Store(0) }

// RequestReseed asks the integrator to rebuild its simulation from seed at the
// next tick boundary. An unconsumed earlier request is overwritten.
func (e *Exchange) RequestReseed(seed uint64) {
	e.seedMu.Lock()
	e.seed = seed
	e.pending = true
	e.seedMu.Unlock()
}

// Reseed resets the tick counter and requests a reseed, which is what a
// consumer does when the user picks a new seed.
func (e *Exchange) Reseed(seed uint64) {
	e.ResetTick()
	e.RequestReseed(seed)
}

// TakeReseed consumes the pending request, if any.
func (e *Exchange) TakeReseed() (uint64, bool) {
	e.seedMu.Lock()
	defer e.seedMu.Unlock()

	if !e.pending {
		return 0, false
	}
	e.pending = false
	return e.seed, true
}

func (e *Exchange) Paused() bool          { return e.paused.Load() }
func (e *Exchange) SetPaused(paused bool) { e.paused.Store(paused) }

// TogglePause flips the pause flag and returns the new value.
func (e *Exchange) TogglePause() bool {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func cloneBodies(bodies []physics.Body) []physics.Body {
	out := make([]physics.Body, len(bodies))
	copy(out, bodies)
	return out
}
