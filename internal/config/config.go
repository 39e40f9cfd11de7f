package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/reference"
)

const (
	DefaultDt       = 1.0
	DefaultDuration = 100.0
	DefaultKp       = 0.85
	DefaultKi       = 0.15
	DefaultKd       = 0.3
	DefaultLimit    = 5.0
	DefaultBound    = 1e6
)

// Config describes one closed-loop run. StabilityBound is the output
// magnitude counted as a stability violation; PID.U is the fixed actuation of
// the manual controller.
type Config struct {
	Name           string              `yaml:"name"`
	Controller     string              `yaml:"controller"`
	Dt             float64             `yaml:"dt"`
	Duration       float64             `yaml:"duration"`
	Precision      string              `yaml:"precision"`
	PID            PIDConfig           `yaml:"pid"`
	Plant          PlantConfig         `yaml:"plant"`
	Reference      []reference.Segment `yaml:"reference"`
	StabilityBound float64             `yaml:"stability_bound"`
	Logging        LoggingConfig       `yaml:"logging"`
}

type PIDConfig struct {
	Kp  float64 `yaml:"kp"`
	Ki  float64 `yaml:"ki"`
	Kd  float64 `yaml:"kd"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
	U   float64 `yaml:"u"`
}

type PlantConfig struct {
	Numerator   []float64 `yaml:"numerator"`
	Denominator []float64 `yaml:"denominator"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig mirrors the phoenix demo loop.
func DefaultConfig() *Config {
	return &Config{
		Name:       "phoenix",
		Controller: "pid",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Precision:  "float64",
		PID: PIDConfig{
			Kp:  DefaultKp,
			Ki:  DefaultKi,
			Kd:  DefaultKd,
			Min: -DefaultLimit,
			Max: DefaultLimit,
		},
		Plant: PlantConfig{
			Numerator:   []float64{1.0, 0.5},
			Denominator: []float64{1.0, -0.8, 0.3},
		},
		Reference:      reference.Demo().Segments(),
		Logging:        LoggingConfig{Level: "info", Format: "text"},
		StabilityBound: DefaultBound,
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver decodes the file at path on top of base. Keys absent from the file
// keep base's values; base itself is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) clone() *Config {
	out := *c
	out.Plant.Numerator = append([]float64(nil), c.Plant.Numerator...)
	out.Plant.Denominator = append([]float64(nil), c.Plant.Denominator...)
	out.Reference = append([]reference.Segment(nil), c.Reference...)
	return &out
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that would otherwise fail mid-run.
func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %v: %w", c.Dt, dynamo.ErrNonPositiveStep)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	switch c.Controller {
	case "pid", "manual":
	default:
		return fmt.Errorf("unknown controller: %s", c.Controller)
	}
	switch c.Precision {
	case "float32", "float64":
	default:
		return fmt.Errorf("unknown precision: %s", c.Precision)
	}
	if math.IsNaN(c.PID.Min) || math.IsNaN(c.PID.Max) || c.PID.Min > c.PID.Max {
		return fmt.Errorf("limits [%v, %v]: %w", c.PID.Min, c.PID.Max, dynamo.ErrInvalidLimits)
	}
	if len(c.Plant.Denominator) == 0 || c.Plant.Denominator[0] == 0 || len(c.Plant.Numerator) == 0 {
		return fmt.Errorf("plant coefficients: %w", dynamo.ErrInvalidArgument)
	}
	if _, err := reference.NewSchedule(c.Reference...); err != nil {
		return err
	}
	return nil
}

func (c *Config) Schedule() (*reference.Schedule, error) {
	return reference.NewSchedule(c.Reference...)
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:             c.Dt,
		Duration:       c.Duration,
		ValidateOutput: true,
	}
}

