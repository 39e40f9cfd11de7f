package config

import (
	"sort"

	"github.com/san-kum/pidsim/internal/reference"
)

var Presets = map[string]func() *Config{
	"sluggish": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "sluggish"
		cfg.PID.Kp, cfg.PID.Ki, cfg.PID.Kd = 0.2, 0.05, 0
		return cfg
	},
	"aggressive": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "aggressive"
		cfg.PID.Kp, cfg.PID.Ki, cfg.PID.Kd = 1.8, 0.6, 0.5
		return cfg
	},
	"first_order": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "first_order"
		cfg.Duration = 60
		cfg.PID = PIDConfig{Kp: 2, Ki: 0.5, Min: -10, Max: 10}
		cfg.Plant = PlantConfig{Numerator: []float64{0.1}, Denominator: []float64{1, -0.9}}
		cfg.Reference = []reference.Segment{{From: 5, Value: 1}}
		return cfg
	},
	"open_loop": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "open_loop"
		cfg.Controller = "manual"
		cfg.Duration = 30
		cfg.PID.U = 1
		cfg.Reference = nil
		return cfg
	},
	"phoenix": DefaultConfig,
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
