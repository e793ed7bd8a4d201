package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/orbitsim/internal/exchange"
	"github.com/san-kum/orbitsim/internal/limiter"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/physics"
)

// Runner drives a Simulation: update, publish, count, take reseeds, pace,
// idle while paused. A tick always runs to completion before a reseed, pause
// or cancellation is honored.
type Runner struct {
	cfg       Config
	ex        *exchange.Exchange
	limiter   limiter.Checker
	log       logging.Logger
	metrics   []Metric
	observers []Observer
}

func New(cfg Config, ex *exchange.Exchange, lim limiter.Checker, log logging.Logger) *Runner {
	if lim == nil {
		lim = limiter.Disabled{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Runner{
		cfg:       cfg,
		ex:        ex,
		limiter:   lim,
		log:       log.With(logging.String("component", "runner")),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run blocks until cfg.MaxTicks ticks have run or ctx is done. On
// cancellation the partial result is returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.validateConfig(); err != nil {
		return nil, err
	}

	s := physics.NewWithParams(r.cfg.Seed, r.cfg.Params)
	r.resetMetrics()

	result := &Result{Metrics: make(map[string]float64)}
	r.log.Info(ctx, "simulation started",
		logging.Uint64("seed", s.Seed()),
		logging.Int("bodies", len(s.Bodies)),
		logging.Uint64("max_ticks", r.cfg.MaxTicks))

	for {
		select {
		case <-ctx.Done():
			return r.finish(result, s), ctx.Err()
		default:
		}

		s.Update()
		tick := r.ex.IncTick()
		r.ex.Publish(s.Seed(), tick, s.Bodies)
		result.Ticks++

		for _, m := range r.metrics {
			m.Observe(s.Bodies)
		}
		for _, o := range r.observers {
			o.OnTick(tick, s)
		}

		if r.cfg.ValidateState && !validBodies(s.Bodies) {
			err := SimError{Tick: tick, Message: "invalid body state (NaN/Inf)"}
			r.log.Warn(ctx, "stopping on invalid state", logging.Uint64("seed", s.Seed()), logging.Err(err))
			return r.finish(result, s), err
		}

		if seed, ok := r.ex.TakeReseed(); ok {
			s = physics.NewWithParams(seed, r.cfg.Params)
			result.Reseeds++
			r.resetMetrics()
			for _, o := range r.observers {
				o.OnReseed(seed, s)
			}
			r.log.Info(ctx, "reseeded", logging.Uint64("seed", seed), logging.Uint64("tick", tick))
		}

		if r.cfg.MaxTicks > 0 && result.Ticks >= r.cfg.MaxTicks {
			return r.finish(result, s), nil
		}

		r.limiter.Check()

		if err := r.waitWhilePaused(ctx); err != nil {
			return r.finish(result, s), err
		}
	}
}

func (r *Runner) waitWhilePaused(ctx context.Context) error {
	if !r.ex.Paused() {
		return nil
	}
	r.log.Debug(ctx, "paused", logging.Uint64("tick", r.ex.Tick()))

	timer := time.NewTimer(r.cfg.PausePoll)
	defer timer.Stop()

	for r.ex.Paused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(r.cfg.PausePoll)
		}
	}
	r.log.Debug(ctx, "resumed", logging.Uint64("tick", r.ex.Tick()))
	return nil
}

func (r *Runner) finish(result *Result, s *physics.Simulation) *Result {
	result.Seed = s.Seed()
	result.Final = s.CloneBodies()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	r.log.Info(context.Background(), "simulation stopped",
		logging.Uint64("ticks", result.Ticks),
		logging.Int("reseeds", result.Reseeds),
		logging.Any("metrics", result.Metrics))
	return result
}

func validBodies(bodies []physics.Body) bool {
	for _, b := range bodies {
		for _, v := range [...]float64{b.Pos.X, b.Pos.Y, b.Vel.X, b.Vel.Y} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func (r *Runner) resetMetrics() {
	for _, m := range r.metrics {
		m.Reset()
	}
}

func (r *Runner) validateConfig() error {
	if r.ex == nil {
		return fmt.Errorf("runner needs an exchange")
	}
	if r.cfg.PausePoll <= 0 {
		return fmt.Errorf("pause poll must be positive, got %v", r.cfg.PausePoll)
	}
	if err := r.cfg.Params.Validate(); err != nil {
		return err
	}
	return nil
}
