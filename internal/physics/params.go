package physics

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultBodyCount = 3
	DefaultTimestep  = 0.000001
	DefaultSoftening = 0.0001
	DefaultBodyMass  = 1.0

	// MaxBodyCount bounds the O(n²) force pass.
	MaxBodyCount = 16
)

// Distribution selects how initial positions and velocities are drawn.
type Distribution string

const (
	// DistDisc draws a uniform angle, then a uniform radius in [0, 1).
	// Points concentrate towards the center; this is the reference behaviour.
	DistDisc Distribution = "disc"
	// DistRing draws a uniform angle on the unit circle.
	DistRing Distribution = "ring"
	// DistSquare draws each coordinate uniformly in [-1, 1).
	DistSquare Distribution = "square"
)

// Normalization selects the divisor used when removing the mean velocity and
// mean position at construction.
type Normalization string

const (
	// NormalizeCount divides the mass-weighted sums by the number of bodies.
	// Identical to a true barycenter only while all masses are 1.
	NormalizeCount Normalization = "count"
	// NormalizeMass divides the mass-weighted sums by the total mass.
	NormalizeMass Normalization = "mass"
)

// Params holds the physical constants of a Simulation.
type Params struct {
	BodyCount     int
	Timestep      float64
	Softening     float64
	Distribution  Distribution
	BodyMass      float64
	Normalization Normalization
}

func DefaultParams() Params {
	return Params{
		BodyCount:     DefaultBodyCount,
		Timestep:      DefaultTimestep,
		Softening:     DefaultSoftening,
		Distribution:  DistDisc,
		BodyMass:      DefaultBodyMass,
		Normalization: NormalizeCount,
	}
}

func (p Params) Validate() error {
	if p.BodyCount < 2 || p.BodyCount > MaxBodyCount {
		return fmt.Errorf("%w: got %d, want 2..%d", ErrBodyCount, p.BodyCount, MaxBodyCount)
	}
	if !positive(p.Timestep) {
		return fmt.Errorf("%w: got %g", ErrTimestep, p.Timestep)
	}
	if !positive(p.Softening) {
		return fmt.Errorf("%w: got %g", ErrSoftening, p.Softening)
	}
	if !positive(p.BodyMass) {
		return fmt.Errorf("%w: got %g", ErrMass, p.BodyMass)
	}
	if _, err := ParseDistribution(string(p.Distribution)); err != nil {
		return err
	}
	if _, err := ParseNormalization(string(p.Normalization)); err != nil {
		return err
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func ParseDistribution(name string) (Distribution, error) {
	switch d := Distribution(strings.ToLower(name)); d {
	case DistDisc, DistRing, DistSquare:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q (available: disc, ring, square)", ErrDistribution, name)
}

func ParseNormalization(name string) (Normalization, error) {
	switch n := Normalization(strings.ToLower(name)); n {
	case NormalizeCount, NormalizeMass:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q (available: count, mass)", ErrNormalization, name)
}

// sample draws one point from rnd. Every kind consumes the stream in a fixed
// order so a seed maps to exactly one configuration.
func (d Distribution) sample(rnd *rand.Rand) r2.Vec {
	switch d {
	case DistRing:
		theta := rnd.Float64() * 2 * math.Pi
		return r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
	case DistSquare:
		x := 2*rnd.Float64() - 1
		y := 2*rnd.Float64() - 1
		return r2.Vec{X: x, Y: y}
	default:
		theta := rnd.Float64() * 2 * math.Pi
		return r2.Scale(rnd.Float64(), r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)})
	}
}
