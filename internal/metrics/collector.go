package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/orbitsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Collector exposes integrator progress as Prometheus metrics. It is driven
// as a sim observer; conserved quantities are sampled every `every` ticks
// since computing them is as costly as a force pass.
type Collector struct {
	gatherer prometheus.Gatherer
	every    uint64

	TicksTotal      prometheus.Counter
	ReseedsTotal    prometheus.Counter
	Seed            prometheus.Gauge
	Energy          prometheus.Gauge
	Momentum        prometheus.Gauge
	AngularMomentum prometheus.Gauge
	MaxRadius       prometheus.Gauge
}

// NewCollector registers the simulation metrics against reg, defaulting to
// the global registry when nil.
func NewCollector(reg prometheus.Registerer, every uint64) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	if every == 0 {
		every = 1
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitsim_ticks_total",
		Help: "Total number of integrator ticks.",
	}), "orbitsim_ticks_total")
	if err != nil {
		return nil, err
	}
	reseeds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitsim_reseeds_total",
		Help: "Total number of reseeds consumed by the integrator.",
	}), "orbitsim_reseeds_total")
	if err != nil {
		return nil, err
	}
	seed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitsim_seed",
		Help: "Seed of the running simulation.",
	}), "orbitsim_seed")
	if err != nil {
		return nil, err
	}
	energy, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitsim_energy",
		Help: "Total (kinetic plus potential) energy at the last sample.",
	}), "orbitsim_energy")
	if err != nil {
		return nil, err
	}
	momentum, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitsim_momentum",
		Help: "Magnitude of total linear momentum at the last sample.",
	}), "orbitsim_momentum")
	if err != nil {
		return nil, err
	}
	angular, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitsim_angular_momentum",
		Help: "Total angular momentum about the origin at the last sample.",
	}), "orbitsim_angular_momentum")
	if err != nil {
		return nil, err
	}
	radius, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitsim_max_radius",
		Help: "Largest body distance from the origin at the last sample.",
	}), "orbitsim_max_radius")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		every:           every,
		TicksTotal:      ticks,
		ReseedsTotal:    reseeds,
		Seed:            seed,
		Energy:          energy,
		Momentum:        momentum,
		AngularMomentum: angular,
		MaxRadius:       radius,
	}, nil
}

func (c *Collector) OnTick(tick uint64, s *physics.Simulation) {
	if c == nil {
		return
	}
	c.TicksTotal.Inc()
	if tick%c.every == 0 {
		c.sample(s)
	}
}

func (c *Collector) OnReseed(seed uint64, s *physics.Simulation) {
	if c == nil {
		return
	}
	c.ReseedsTotal.Inc()
	c.sample(s)
}

func (c *Collector) sample(s *physics.Simulation) {
	c.Seed.Set(float64(s.Seed()))
	c.Energy.Set(physics.Energy(s.Bodies))
	c.Momentum.Set(r2.Norm(physics.Momentum(s.Bodies)))
	c.AngularMomentum.Set(physics.AngularMomentum(s.Bodies))
	c.MaxRadius.Set(physics.MaxRadius(s.Bodies))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
