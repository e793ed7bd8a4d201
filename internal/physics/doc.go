// Package physics implements the gravitational point-mass integrator.
//
// The package is built around two types:
//
//   - [Body]: kinematic state of a single point mass
//   - [Simulation]: a seeded set of bodies advanced one fixed timestep per [Simulation.Update]
//
// Initial conditions are drawn from a single PRNG stream seeded with a uint64,
// so the same seed and [Params] always reproduce the same configuration. After
// construction the total momentum is zero, the barycenter sits at the origin
// and the furthest body is exactly one unit away from it.
//
// # Example
//
//	s := physics.New(3)
//	for i := 0; i < 1000; i++ {
//	    s.Update()
//	}
//	snapshot := s.CloneBodies()
//
// # Scaling
//
// The force pass visits every unordered pair of bodies, so a tick costs O(n²).
// That is fine for the handful of bodies this package is meant for and is the
// reason [MaxBodyCount] exists.
//
// # Thread Safety
//
// Simulation instances are NOT thread-safe. Share state with other goroutines
// by publishing copies from [Simulation.CloneBodies].
package physics
