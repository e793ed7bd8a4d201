package config

import (
	"sort"

	"github.com/san-kum/orbitsim/internal/limiter"
	"github.com/san-kum/orbitsim/internal/physics"
)

var Presets = map[string]func(*Config){
	// the defaults: three unit masses from seed 3, spin-limited to 1M ticks/s
	"reference": func(c *Config) {},
	"relaxed": func(c *Config) {
		c.Loop.Limiter = limiter.KindSleep
		c.Loop.MaxRate = 20000
	},
	"unbounded": func(c *Config) {
		c.Loop.Limiter = limiter.KindNone
	},
	"ring": func(c *Config) {
		c.Physics.Distribution = string(physics.DistRing)
	},
	"square": func(c *Config) {
		c.Physics.Distribution = string(physics.DistSquare)
	},
	"crowd": func(c *Config) {
		c.Physics.BodyCount = 8
		c.Physics.Softening = 0.001
	},
	"heavy": func(c *Config) {
		c.Physics.BodyMass = 2
		c.Physics.Normalization = string(physics.NormalizeMass)
	},
}

// GetPreset returns a fresh config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
