package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/exchange"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/spf13/cobra"
)

// loadConfig resolves defaults, then the preset, then the config file, then
// LOG_LEVEL/LOG_FORMAT, then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.Overlay(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("bodies") {
		cfg.Physics.BodyCount = bodies
	}
	if flags.Changed("distribution") {
		cfg.Physics.Distribution = distribution
	}
	if flags.Changed("max-rate") {
		cfg.Loop.MaxRate = maxRate
	}
	if flags.Changed("limiter") {
		cfg.Loop.Limiter = limiterKind
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func simConfig(cfg *config.Config) (sim.Config, error) {
	params, err := cfg.PhysicsParams()
	if err != nil {
		return sim.Config{}, err
	}

	sc := sim.DefaultConfig()
	sc.Seed = cfg.Seed
	sc.Params = params
	sc.PausePoll = cfg.Loop.PausePoll
	sc.MaxTicks = cfg.Loop.MaxTicks
	return sc, nil
}

// newLogger writes to the configured log file, or to stderr unless the
// terminal is owned by the viewer.
func newLogger(cfg *config.Config, tui bool) (logging.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closer := func() {}

	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { f.Close() }
	case tui:
		return logging.Noop(), closer, nil
	}

	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	}), closer, nil
}

// newRunner wires the limiter, logger and optional metrics endpoint around a
// runner. The endpoint stops when ctx is done.
func newRunner(ctx context.Context, cfg *config.Config, ex *exchange.Exchange, log logging.Logger) (*sim.Runner, error) {
	simCfg, err := simConfig(cfg)
	if err != nil {
		return nil, err
	}

	lim, err := cfg.NewLimiter()
	if err != nil {
		return nil, err
	}

	runner := sim.New(simCfg, ex, lim, log)
	fields := logFields(cfg)
	if paced, ok := lim.(interface{ Min() time.Duration }); ok {
		fields = append(fields, logging.String("interval", paced.Min().String()))
	}
	log.Info(ctx, "configured", fields...)

	if cfg.Metrics.Addr != "" {
		collector, err := metrics.NewCollector(prometheus.NewRegistry(), cfg.Metrics.Every)
		if err != nil {
			return nil, err
		}
		runner.AddObserver(collector)
		serveMetrics(ctx, cfg.Metrics.Addr, collector.Handler(), log)
	}

	return runner, nil
}

func serveMetrics(ctx context.Context, addr string, handler http.Handler, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(ctx, "serving metrics", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// runMetadata describes a finished headless run for storage.
func runMetadata(cfg *config.Config, result *sim.Result, elapsed time.Duration) (storage.RunMetadata, error) {
	params, err := cfg.PhysicsParams()
	if err != nil {
		return storage.RunMetadata{}, err
	}
	return storage.RunMetadata{
		Seed:        cfg.Seed,
		FinalSeed:   result.Seed,
		Ticks:       result.Ticks,
		Reseeds:     result.Reseeds,
		Params:      params,
		Limiter:     cfg.Loop.Limiter,
		MaxRate:     cfg.Loop.MaxRate,
		RecordEvery: cfg.Record.Every,
		Elapsed:     elapsed,
		Metrics:     result.Metrics,
	}, nil
}

func defaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergyDrift(),
		metrics.NewMomentumDrift(),
		metrics.NewBarycenterDrift(),
		metrics.NewStability(2.0),
	}
}
