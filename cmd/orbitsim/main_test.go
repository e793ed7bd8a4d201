package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/spf13/cobra"
)

func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	t.Cleanup(func() {
		configFile, preset = "", ""
	})

	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestCmd(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Seed != config.DefaultSeed || cfg.Loop.Limiter != config.DefaultLimiter {
		t.Errorf("expected defaults, got seed %d limiter %q", cfg.Seed, cfg.Loop.Limiter)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbitsim.yaml")
	if err := os.WriteFile(path, []byte("seed: 40\nloop:\n  limiter: sleep\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newTestCmd(t, "--preset", "crowd", "--config", path, "--seed", "9")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Physics.BodyCount != 8 {
		t.Errorf("preset not applied: %d bodies", cfg.Physics.BodyCount)
	}
	if cfg.Loop.Limiter != "sleep" {
		t.Errorf("config file not applied: limiter %q", cfg.Loop.Limiter)
	}
	if cfg.Seed != 9 {
		t.Errorf("flag should win over config file, got seed %d", cfg.Seed)
	}
}

func TestLoadConfigLogEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := loadConfig(newTestCmd(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("env not applied: level %q format %q", cfg.Log.Level, cfg.Log.Format)
	}

	cfg, err = loadConfig(newTestCmd(t, "--log-level", "error"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Log.Level != "error" || cfg.Log.Format != "json" {
		t.Errorf("flag should win over env: level %q format %q", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "nope"}},
		{"too few bodies", []string{"--bodies", "1"}},
		{"bad distribution", []string{"--distribution", "spiral"}},
		{"bad limiter", []string{"--limiter", "turbo"}},
		{"missing config file", []string{"--config", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(newTestCmd(t, tt.args...)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSimConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Seed = 17
	cfg.Loop.MaxTicks = 500

	sc, err := simConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Seed != 17 || sc.MaxTicks != 500 || sc.PausePoll != cfg.Loop.PausePoll {
		t.Errorf("unexpected sim config %+v", sc)
	}
}

func TestDefaultMetricNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range defaultMetrics() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %q", m.Name())
		}
		seen[m.Name()] = true
	}
}

// untilDone blocks until ctx is cancelled, like the viewer or an unbounded run.
func untilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunAlongside(t *testing.T) {
	simErr := sim.SimError{Tick: 4, Message: "invalid body state (NaN/Inf)"}
	viewErr := errors.New("terminal gone")

	tests := []struct {
		name string
		run  func(context.Context) error
		view func(context.Context) error
		want error
	}{
		{
			name: "integrator failure stops the viewer",
			run:  func(context.Context) error { return simErr },
			view: untilDone,
			want: simErr,
		},
		{
			name: "viewer quit stops the integrator",
			run:  untilDone,
			view: func(context.Context) error { return nil },
		},
		{
			name: "viewer failure is reported",
			run:  untilDone,
			view: func(context.Context) error { return viewErr },
			want: viewErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() { done <- runAlongside(context.Background(), tt.run, tt.view) }()

			select {
			case err := <-done:
				if !errors.Is(err, tt.want) {
					t.Errorf("got %v, want %v", err, tt.want)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("runAlongside did not return")
			}
		})
	}
}

func TestRunMetadata(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Seed = 5
	result := &sim.Result{Ticks: 300, Seed: 6, Reseeds: 1, Metrics: map[string]float64{"energy_drift": 1e-9}}

	meta, err := runMetadata(cfg, result, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Seed != 5 || meta.FinalSeed != 6 || meta.Ticks != 300 || meta.Params.BodyCount != cfg.Physics.BodyCount {
		t.Errorf("unexpected metadata %+v", meta)
	}

	cfg.Physics.Distribution = "spiral"
	if _, err := runMetadata(cfg, result, time.Second); err == nil {
		t.Error("expected an error for invalid params")
	}
}

func TestShowPresetsWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crowd.yaml")
	outPath = path
	t.Cleanup(func() { outPath = "" })

	if err := showPresets(&cobra.Command{}, []string{"crowd"}); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written preset: %v", err)
	}
	if cfg.Physics.BodyCount != config.GetPreset("crowd").Physics.BodyCount {
		t.Errorf("preset not round-tripped, got %d bodies", cfg.Physics.BodyCount)
	}
	if err := showPresets(&cobra.Command{}, []string{"nope"}); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}
