package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/models"
	"github.com/san-kum/pidsim/internal/reference"
	"github.com/san-kum/pidsim/internal/sim"
)

// PlantInfo is the analysis view of a plant, independent of its element type.
type PlantInfo interface {
	Order() int
	DCGain() (float64, error)
	Poles() []complex128
	IsStable() bool
}

// Experiment is a closed loop assembled from a Config.
type Experiment struct {
	cfg       *config.Config
	loop      sim.Driver
	tunable   dynamo.Configurable
	plant     PlantInfo
	reference reference.Signal
}

func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Precision {
	case "float32":
		return build[float32](cfg)
	default:
		return build[float64](cfg)
	}
}

func build[T dynamo.Float](cfg *config.Config) (*Experiment, error) {
	plant, err := models.NewPlant(convert[T](cfg.Plant.Numerator), convert[T](cfg.Plant.Denominator))
	if err != nil {
		return nil, fmt.Errorf("plant: %w", err)
	}

	factory, ok := controllers[T]()[cfg.Controller]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", cfg.Controller)
	}
	ctrl, err := factory(cfg.PID)
	if err != nil {
		return nil, fmt.Errorf("controller %s: %w", cfg.Controller, err)
	}

	ref, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}

	loop := sim.New[T](ctrl, plant)
	for _, m := range metrics.Defaults(cfg.PID.Min, cfg.PID.Max, cfg.StabilityBound) {
		loop.AddMetric(m)
	}

	e := &Experiment{
		cfg:       cfg,
		loop:      loop,
		plant:     plant,
		reference: ref,
	}
	if t, ok := ctrl.(dynamo.Configurable); ok {
		e.tunable = t
	}
	return e, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.loop.Run(ctx, e.reference, e.cfg.SimConfig())
}

// Job packages the experiment for sim.RunAll.
func (e *Experiment) Job() sim.Job {
	return sim.Job{
		Name:      e.cfg.Name,
		Loop:      e.loop,
		Reference: e.reference,
		Config:    e.cfg.SimConfig(),
	}
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Loop() sim.Driver             { return e.loop }
func (e *Experiment) Plant() PlantInfo             { return e.plant }
func (e *Experiment) Reference() reference.Signal  { return e.reference }
func (e *Experiment) Tunable() dynamo.Configurable { return e.tunable }

func convert[T dynamo.Float](xs []float64) []T {
	out := make([]T, len(xs))
	for i, x := range xs {
		out[i] = T(x)
	}
	return out
}
