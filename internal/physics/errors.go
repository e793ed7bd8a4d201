package physics

import "errors"

// Parameter validation errors.
var (
	// ErrBodyCount indicates a body count outside [2, MaxBodyCount].
	ErrBodyCount = errors.New("physics: body count out of range")

	// ErrTimestep indicates a non-positive or non-finite timestep.
	ErrTimestep = errors.New("physics: timestep must be positive")

	// ErrSoftening indicates a non-positive or non-finite softening floor.
	ErrSoftening = errors.New("physics: softening floor must be positive")

	// ErrMass indicates a non-positive or non-finite body mass.
	ErrMass = errors.New("physics: body mass must be positive")

	// ErrDistribution indicates an unknown initial distribution name.
	ErrDistribution = errors.New("physics: unknown initial distribution")

	// ErrNormalization indicates an unknown normalization name.
	ErrNormalization = errors.New("physics: unknown normalization")
)
