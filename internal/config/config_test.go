package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/orbitsim/internal/limiter"
	"github.com/san-kum/orbitsim/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Seed != 3 {
		t.Errorf("expected seed 3, got %d", cfg.Seed)
	}
	if cfg.Loop.MaxRate != 1000000 {
		t.Errorf("expected max rate 1e6, got %g", cfg.Loop.MaxRate)
	}
	if cfg.Loop.PausePoll != 16*time.Millisecond {
		t.Errorf("expected 16ms pause poll, got %v", cfg.Loop.PausePoll)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	p, err := cfg.PhysicsParams()
	if err != nil {
		t.Fatal(err)
	}
	if p != physics.DefaultParams() {
		t.Errorf("params = %+v, want defaults", p)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbitsim.yaml")
	data := []byte(`
seed: 99
physics:
  body_count: 5
  initial_distribution: ring
loop:
  limiter: sleep
  pause_poll: 50ms
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Seed != 99 || cfg.Physics.BodyCount != 5 || cfg.Physics.Distribution != "ring" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Loop.PausePoll != 50*time.Millisecond {
		t.Errorf("pause poll = %v, want 50ms", cfg.Loop.PausePoll)
	}
	if cfg.Physics.Timestep != physics.DefaultTimestep || cfg.Physics.Softening != physics.DefaultSoftening {
		t.Errorf("omitted keys lost defaults: %+v", cfg.Physics)
	}
	if cfg.Loop.MaxRate != DefaultMaxRate {
		t.Errorf("max rate = %g, want default", cfg.Loop.MaxRate)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbitsim.yaml")
	cfg := GetPreset("heavy")
	cfg.Seed = 1 << 60

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("physics: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"one body", func(c *Config) { c.Physics.BodyCount = 1 }},
		{"bad distribution", func(c *Config) { c.Physics.Distribution = "plummer" }},
		{"bad normalization", func(c *Config) { c.Physics.Normalization = "none" }},
		{"negative rate", func(c *Config) { c.Loop.MaxRate = -1 }},
		{"bad limiter", func(c *Config) { c.Loop.Limiter = "ticker" }},
		{"zero pause poll", func(c *Config) { c.Loop.PausePoll = 0 }},
		{"negative max frames", func(c *Config) { c.Record.MaxFrames = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewLimiter(t *testing.T) {
	cfg := DefaultConfig()
	c, err := cfg.NewLimiter()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*limiter.Spin); !ok {
		t.Errorf("default limiter = %T, want *limiter.Spin", c)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("crowd")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Physics.BodyCount != 8 {
		t.Errorf("expected 8 bodies, got %d", cfg.Physics.BodyCount)
	}

	// presets hand out fresh copies
	cfg.Physics.BodyCount = 2
	if GetPreset("crowd").Physics.BodyCount != 8 {
		t.Error("preset mutated through returned config")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("ListPresets returned %d names, want %d", len(names), len(Presets))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestOverlayOnPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbitsim.yaml")
	if err := os.WriteFile(path, []byte("seed: 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("crowd")
	if err := Overlay(cfg, path); err != nil {
		t.Fatalf("overlay failed: %v", err)
	}

	if cfg.Seed != 12 {
		t.Errorf("expected seed 12, got %d", cfg.Seed)
	}
	if cfg.Physics.BodyCount != 8 {
		t.Errorf("preset body count lost, got %d", cfg.Physics.BodyCount)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantLevel  string
		wantFormat string
	}{
		{"unset keeps config", nil, "warn", "text"},
		{"level only", map[string]string{"LOG_LEVEL": "debug"}, "debug", "text"},
		{"both", map[string]string{"LOG_LEVEL": "error", "LOG_FORMAT": "json"}, "error", "json"},
		{"empty is unset", map[string]string{"LOG_LEVEL": ""}, "warn", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Log.Level = "warn"
			cfg.ApplyEnv(func(k string) string { return tt.env[k] })

			if cfg.Log.Level != tt.wantLevel || cfg.Log.Format != tt.wantFormat {
				t.Errorf("got level %q format %q, want %q %q",
					cfg.Log.Level, cfg.Log.Format, tt.wantLevel, tt.wantFormat)
			}
		})
	}
}
