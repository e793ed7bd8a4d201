package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a point mass. Acc accumulates the acceleration of the current tick
// and is zero between ticks.
type Body struct {
	Pos  r2.Vec
	Vel  r2.Vec
	Acc  r2.Vec
	Mass float64
}

func NewBody(pos, vel r2.Vec, mass float64) Body {
	return Body{Pos: pos, Vel: vel, Mass: mass}
}

// Integrate performs one semi-implicit Euler step: the position moves with the
// pre-step velocity, then the velocity takes the accumulated acceleration and
// the accumulator is cleared.
func (b *Body) Integrate(dt float64) {
	b.Pos = r2.Add(b.Pos, r2.Scale(dt, b.Vel))
	b.Vel = r2.Add(b.Vel, r2.Scale(dt, b.Acc))
	b.Acc = r2.Vec{}
}

// div divides componentwise; x/s and x*(1/s) can differ in the last bit.
func div(v r2.Vec, s float64) r2.Vec {
	return r2.Vec{X: v.X / s, Y: v.Y / s}
}

func norm(v r2.Vec) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}
