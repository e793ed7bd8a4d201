package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/orbitsim/internal/physics"
)

// Metric accumulates a scalar over the ticks of one simulation. Reset is
// called whenever the simulation is rebuilt.
type Metric interface {
	Name() string
	Observe(bodies []physics.Body)
	Value() float64
	Reset()
}

// Observer is notified from the integrator goroutine. Implementations must
// not retain s.
type Observer interface {
	OnTick(tick uint64, s *physics.Simulation)
	OnReseed(seed uint64, s *physics.Simulation)
}

type Config struct {
	Seed      uint64
	Params    physics.Params
	PausePoll time.Duration
	MaxTicks  uint64 // 0 runs until the context is done

	// ValidateState stops the run with a SimError once a body turns NaN or Inf.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Seed:      3,
		Params:    physics.DefaultParams(),
		PausePoll: 16 * time.Millisecond,

		ValidateState: true,
	}
}

type Result struct {
	Ticks   uint64
	Seed    uint64
	Reseeds int
	Metrics map[string]float64
	Final   []physics.Body
}

// Frame is a sampled copy of the bodies.
type Frame struct {
	Tick   uint64
	Seed   uint64
	Bodies []physics.Body
}

type SimError struct {
	Tick    uint64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("tick %d: %s", e.Tick, e.Message)
}
