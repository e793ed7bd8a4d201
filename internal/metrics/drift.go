package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// EnergyDrift tracks the largest relative deviation of total energy from its
// value at the first observed tick.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(bodies []physics.Body) {
	energy := physics.Energy(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// VectorDrift records the largest distance of a vector quantity from its first
// observed value. Momentum and barycenter start near zero, so the drift is
// absolute rather than relative.
type VectorDrift struct {
	name     string
	quantity func([]physics.Body) r2.Vec
	initial  r2.Vec
	maxDrift float64
	samples  int
}

func (d *VectorDrift) Name() string { return d.name }

func (d *VectorDrift) Observe(bodies []physics.Body) {
	q := d.quantity(bodies)
	if d.samples == 0 {
		d.initial = q
	}
	d.samples++
	d.maxDrift = math.Max(d.maxDrift, r2.Norm(r2.Sub(q, d.initial)))
}

func (d *VectorDrift) Value() float64 { return d.maxDrift }

func (d *VectorDrift) Reset() {
	d.initial = r2.Vec{}
	d.maxDrift = 0
	d.samples = 0
}

func NewMomentumDrift() *VectorDrift {
	return &VectorDrift{name: "momentum_drift", quantity: physics.Momentum}
}

func NewBarycenterDrift() *VectorDrift {
	return &VectorDrift{name: "barycenter_drift", quantity: physics.Barycenter}
}
