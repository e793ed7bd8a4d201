package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/orbitsim/internal/exchange"
	"github.com/san-kum/orbitsim/internal/limiter"
)

// ErrNoRuns is returned by Sweep.Run when fewer than one run is requested.
var ErrNoRuns = errors.New("sim: sweep needs at least one run")

// Sweep runs the same configuration for numRuns consecutive seeds, each in its
// own goroutine with its own exchange and an unlimited loop.
type Sweep struct {
	cfg       Config
	numRuns   int
	seedStart uint64
	metrics   func() []Metric
}

// NewSweep prepares a sweep. metrics builds a fresh metric set per run and
// may be nil.
func NewSweep(cfg Config, numRuns int, seedStart uint64, metrics func() []Metric) *Sweep {
	return &Sweep{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

// Run returns one result per seed, in seed order.
func (sw *Sweep) Run(ctx context.Context) ([]*Result, error) {
	if sw.numRuns < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoRuns, sw.numRuns)
	}

	results := make([]*Result, sw.numRuns)
	errs := make([]error, sw.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < sw.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := sw.cfg
			cfgCopy.Seed = sw.seedStart + uint64(idx)

			r := New(cfgCopy, exchange.New(), limiter.Disabled{}, nil)
			if sw.metrics != nil {
				for _, m := range sw.metrics() {
					r.AddMetric(m)
				}
			}

			results[idx], errs[idx] = r.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
