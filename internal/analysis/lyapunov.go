package analysis

import (
	"math"

	"github.com/san-kum/orbitsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

type LyapunovConfig struct {
	Ticks        uint64
	RenormEvery  uint64
	Perturbation float64
}

func DefaultLyapunovConfig() LyapunovConfig {
	return LyapunovConfig{
		Ticks:        200000,
		RenormEvery:  1000,
		Perturbation: 1e-9,
	}
}

// LyapunovExponent estimates the largest Lyapunov exponent of s using the
// trajectory separation method, in units of 1/time. s is not modified.
//
// A copy of s with body 0 shifted by cfg.Perturbation is advanced alongside a
// reference copy. Every RenormEvery ticks the phase-space separation d is
// measured, ln(d/d0) is accumulated and the perturbed copy is pulled back to
// distance d0 along the same direction.
func LyapunovExponent(s *physics.Simulation, cfg LyapunovConfig) float64 {
	if len(s.Bodies) == 0 || cfg.Ticks == 0 || cfg.Perturbation <= 0 {
		return 0
	}
	if cfg.RenormEvery == 0 {
		cfg.RenormEvery = 1
	}

	ref := s.Clone()
	pert := s.Clone()
	pert.Bodies[0].Pos.X += cfg.Perturbation
	d0 := cfg.Perturbation

	sumLog := 0.0
	var elapsed uint64

	for tick := uint64(1); tick <= cfg.Ticks; tick++ {
		ref.Update()
		pert.Update()

		if tick%cfg.RenormEvery != 0 {
			continue
		}

		d := separation(ref.Bodies, pert.Bodies)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		sumLog += math.Log(d / d0)
		elapsed = tick
		rescale(ref.Bodies, pert.Bodies, d0/d)
	}

	if elapsed == 0 {
		return 0
	}
	return sumLog / (float64(elapsed) * s.Params().Timestep)
}

// separation is the Euclidean distance between two body sets in phase space.
func separation(a, b []physics.Body) float64 {
	sum := 0.0
	for i := range a {
		sum += r2.Norm2(r2.Sub(b[i].Pos, a[i].Pos))
		sum += r2.Norm2(r2.Sub(b[i].Vel, a[i].Vel))
	}
	return math.Sqrt(sum)
}

// rescale moves every body of pert towards ref so their separation is
// multiplied by f.
func rescale(ref, pert []physics.Body, f float64) {
	for i := range pert {
		pert[i].Pos = r2.Add(ref[i].Pos, r2.Scale(f, r2.Sub(pert[i].Pos, ref[i].Pos)))
		pert[i].Vel = r2.Add(ref[i].Vel, r2.Scale(f, r2.Sub(pert[i].Vel, ref[i].Vel)))
	}
}
