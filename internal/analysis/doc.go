// Package analysis characterizes the dynamics of a Simulation.
//
//   - [LyapunovExponent]: largest Lyapunov exponent from two nearby runs
//   - [PowerSpectrum] and [DominantPeriod]: frequency content of a sampled
//     coordinate
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics, which is
// the usual case for three or more bodies:
//
//	lambda := analysis.LyapunovExponent(physics.New(3), analysis.DefaultLyapunovConfig())
//	if lambda > 0 {
//	    // nearby initial conditions diverge
//	}
package analysis
