package physics

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

// Simulation owns an ordered set of bodies advanced with a fixed timestep.
// It is never resized in place; a reseed builds a new Simulation.
type Simulation struct {
	Bodies []Body

	seed   uint64
	params Params
}

// New builds a Simulation from seed with DefaultParams.
func New(seed uint64) *Simulation {
	return NewWithParams(seed, DefaultParams())
}

// NewWithParams draws p.BodyCount bodies from a PRNG seeded with seed, removes
// the mean velocity and mean position, and scales positions so the furthest
// body sits at distance 1 from the origin.
//
// It panics if p is invalid or the drawn configuration has no well-defined
// radius; both are caller bugs, not runtime conditions.
func NewWithParams(seed uint64, p Params) *Simulation {
	if err := p.Validate(); err != nil {
		panic(err)
	}

	rnd := rand.New(rand.NewSource(seed))
	bodies := make([]Body, 0, p.BodyCount)
	for i := 0; i < p.BodyCount; i++ {
		pos := p.Distribution.sample(rnd)
		vel := p.Distribution.sample(rnd)
		bodies = append(bodies, NewBody(pos, vel, p.BodyMass))
	}

	vel, pos := means(bodies, p.Normalization)
	for i := range bodies {
		bodies[i].Vel = r2.Sub(bodies[i].Vel, vel)
		bodies[i].Pos = r2.Sub(bodies[i].Pos, pos)
	}

	r := maxRadius(bodies)
	for i := range bodies {
		bodies[i].Pos = div(bodies[i].Pos, r)
	}

	return &Simulation{
		Bodies: bodies,
		seed:   seed,
		params: p,
	}
}

// means returns the mass-weighted mean velocity and position.
func means(bodies []Body, n Normalization) (vel, pos r2.Vec) {
	var totalMass float64
	for _, b := range bodies {
		vel = r2.Add(vel, r2.Scale(b.Mass, b.Vel))
		pos = r2.Add(pos, r2.Scale(b.Mass, b.Pos))
		totalMass += b.Mass
	}

	divisor := float64(len(bodies))
	if n == NormalizeMass {
		divisor = totalMass
	}
	return div(vel, divisor), div(pos, divisor)
}

// maxRadius returns the largest distance from the origin. A NaN distance, an
// empty set or a zero radius panics.
func maxRadius(bodies []Body) float64 {
	if len(bodies) == 0 {
		panic("physics: cannot normalize an empty body set")
	}

	r := math.Inf(-1)
	for i, b := range bodies {
		d := norm(b.Pos)
		if math.IsNaN(d) {
			panic(fmt.Sprintf("physics: body %d has NaN distance from origin", i))
		}
		if d > r {
			r = d
		}
	}

	if r <= 0 || math.IsInf(r, 0) {
		panic(fmt.Sprintf("physics: degenerate initial radius %g", r))
	}
	return r
}

func (s *Simulation) Seed() uint64   { return s.seed }
func (s *Simulation) Params() Params { return s.params }

// Update advances the simulation by one tick.
func (s *Simulation) Update() {
	s.accumulate()
	s.integrate()
}

// accumulate adds the softened pairwise gravitational acceleration of every
// unordered pair to both bodies. Contributions are equal and opposite, so the
// total momentum does not change.
func (s *Simulation) accumulate() {
	n := len(s.Bodies)
	floor := s.params.Softening

	for i := 0; i < n; i++ {
		p1 := s.Bodies[i].Pos
		m1 := s.Bodies[i].Mass

		for j := i + 1; j < n; j++ {
			p2 := s.Bodies[j].Pos
			m2 := s.Bodies[j].Mass

			r := r2.Sub(p2, p1)
			magSq := r.X*r.X + r.Y*r.Y
			mag := math.Sqrt(magSq)
			if mag == 0 {
				// coincident: no direction to pull along
				continue
			}
			tmp := div(r, math.Max(magSq, floor)*mag)

			s.Bodies[i].Acc = r2.Add(s.Bodies[i].Acc, r2.Scale(m2, tmp))
			s.Bodies[j].Acc = r2.Sub(s.Bodies[j].Acc, r2.Scale(m1, tmp))
		}
	}
}

func (s *Simulation) integrate() {
	dt := s.params.Timestep
	for i := range s.Bodies {
		s.Bodies[i].Integrate(dt)
	}
}

// CloneBodies returns a copy of the body list that shares nothing with s.
func (s *Simulation) CloneBodies() []Body {
	out := make([]Body, len(s.Bodies))
	copy(out, s.Bodies)
	return out
}

// Clone returns an independent Simulation with the same seed, params and
// current bodies.
func (s *Simulation) Clone() *Simulation {
	return &Simulation{
		Bodies: s.CloneBodies(),
		seed:   s.seed,
		params: s.params,
	}
}
