package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/orbitsim/internal/limiter"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSeed         = 3
	DefaultMaxRate      = 1000000.0
	DefaultLimiter      = limiter.KindSpin
	DefaultPausePoll    = 16 * time.Millisecond
	DefaultMetricsEvery = 1000
	DefaultRecordEvery  = 1000
	DefaultMaxFrames    = 10000
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

type Config struct {
	Seed    uint64        `yaml:"seed"`
	Physics PhysicsConfig `yaml:"physics"`
	Loop    LoopConfig    `yaml:"loop"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Record  RecordConfig  `yaml:"record"`
}

type PhysicsConfig struct {
	BodyCount     int     `yaml:"body_count"`
	Timestep      float64 `yaml:"timestep"`
	Softening     float64 `yaml:"softening_floor"`
	Distribution  string  `yaml:"initial_distribution"`
	BodyMass      float64 `yaml:"body_mass"`
	Normalization string  `yaml:"normalization"`
}

type LoopConfig struct {
	MaxRate   float64       `yaml:"max_rate"`
	Limiter   string        `yaml:"limiter"`
	PausePoll time.Duration `yaml:"pause_poll"`
	MaxTicks  uint64        `yaml:"max_ticks"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type MetricsConfig struct {
	Addr  string `yaml:"addr"`
	Every uint64 `yaml:"every"`
}

type RecordConfig struct {
	Every     uint64 `yaml:"every"`
	MaxFrames int    `yaml:"max_frames"`
}

func DefaultConfig() *Config {
	p := physics.DefaultParams()
	return &Config{
		Seed: DefaultSeed,
		Physics: PhysicsConfig{
			BodyCount:     p.BodyCount,
			Timestep:      p.Timestep,
			Softening:     p.Softening,
			Distribution:  string(p.Distribution),
			BodyMass:      p.BodyMass,
			Normalization: string(p.Normalization),
		},
		Loop: LoopConfig{
			MaxRate:   DefaultMaxRate,
			Limiter:   DefaultLimiter,
			PausePoll: DefaultPausePoll,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Every: DefaultMetricsEvery,
		},
		Record: RecordConfig{
			Every:     DefaultRecordEvery,
			MaxFrames: DefaultMaxFrames,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig, so omitted keys keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay applies the keys present in a YAML file to cfg.
func Overlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PhysicsParams converts the physics section into validated params.
func (c *Config) PhysicsParams() (physics.Params, error) {
	dist, err := physics.ParseDistribution(c.Physics.Distribution)
	if err != nil {
		return physics.Params{}, err
	}
	norm, err := physics.ParseNormalization(c.Physics.Normalization)
	if err != nil {
		return physics.Params{}, err
	}

	p := physics.Params{
		BodyCount:     c.Physics.BodyCount,
		Timestep:      c.Physics.Timestep,
		Softening:     c.Physics.Softening,
		Distribution:  dist,
		BodyMass:      c.Physics.BodyMass,
		Normalization: norm,
	}
	if err := p.Validate(); err != nil {
		return physics.Params{}, err
	}
	return p, nil
}

// ApplyEnv overrides the log level and format from LOG_LEVEL and LOG_FORMAT
// when they are set. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(logging.EnvLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(logging.EnvFormat); v != "" {
		c.Log.Format = v
	}
}

// NewLimiter builds the loop limiter described by the loop section.
func (c *Config) NewLimiter() (limiter.Checker, error) {
	return limiter.New(c.Loop.Limiter, c.Loop.MaxRate)
}

func (c *Config) Validate() error {
	if _, err := c.PhysicsParams(); err != nil {
		return err
	}
	if c.Loop.MaxRate < 0 {
		return fmt.Errorf("max_rate must not be negative, got %g", c.Loop.MaxRate)
	}
	if _, err := c.NewLimiter(); err != nil {
		return err
	}
	if c.Loop.PausePoll <= 0 {
		return fmt.Errorf("pause_poll must be positive, got %v", c.Loop.PausePoll)
	}
	if c.Record.MaxFrames < 0 {
		return fmt.Errorf("record.max_frames must not be negative, got %d", c.Record.MaxFrames)
	}
	return nil
}
