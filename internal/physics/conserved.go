package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Momentum returns Σ mass·vel.
func Momentum(bodies []Body) r2.Vec {
	var p r2.Vec
	for _, b := range bodies {
		p = r2.Add(p, r2.Scale(b.Mass, b.Vel))
	}
	return p
}

// Barycenter returns the mass-weighted mean position. It is the origin for an
// empty or massless set.
func Barycenter(bodies []Body) r2.Vec {
	var c r2.Vec
	total := 0.0
	for _, b := range bodies {
		c = r2.Add(c, r2.Scale(b.Mass, b.Pos))
		total += b.Mass
	}
	if total == 0 {
		return r2.Vec{}
	}
	return div(c, total)
}

// Energy returns kinetic plus unsoftened potential energy (G = 1).
// Coincident pairs are left out of the potential.
func Energy(bodies []Body) float64 {
	ke := 0.0
	pe := 0.0

	for i := range bodies {
		v := bodies[i].Vel
		ke += 0.5 * bodies[i].Mass * (v.X*v.X + v.Y*v.Y)

		for j := i + 1; j < len(bodies); j++ {
			r := norm(r2.Sub(bodies[j].Pos, bodies[i].Pos))
			if r == 0 {
				continue
			}
			pe -= bodies[i].Mass * bodies[j].Mass / r
		}
	}

	return ke + pe
}

// AngularMomentum returns the z component of Σ mass·(pos × vel) about the origin.
func AngularMomentum(bodies []Body) float64 {
	L := 0.0
	for _, b := range bodies {
		L += b.Mass * (b.Pos.X*b.Vel.Y - b.Pos.Y*b.Vel.X)
	}
	return L
}

// MaxRadius returns the largest distance of any body from the origin.
func MaxRadius(bodies []Body) float64 {
	r := 0.0
	for _, b := range bodies {
		r = math.Max(r, norm(b.Pos))
	}
	return r
}
