package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/reference"
)

// Driver is the element-type independent view of a *Loop[T].
type Driver interface {
	Runner
	Step(r float64, dt float64) (dynamo.Sample, error)
	Reset()
	AddMetric(m dynamo.Metric)
	AddObserver(o dynamo.Observer)
}

// Loop closes a feedback loop around a controller and a plant. The plant
// output of each step is the controller's measurement on the next one.
type Loop[T dynamo.Float] struct {
	controller dynamo.Controller[T]
	plant      dynamo.Plant[T]
	metrics    []dynamo.Metric
	observers  []dynamo.Observer

	step     int
	measured T
}

func New[T dynamo.Float](controller dynamo.Controller[T], plant dynamo.Plant[T]) *Loop[T] {
	return &Loop[T]{
		controller: controller,
		plant:      plant,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (l *Loop[T]) AddMetric(m dynamo.Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop[T]) AddObserver(o dynamo.Observer) { l.observers = append(l.observers, o) }

// Reset brings controller, plant and metrics back to rest.
func (l *Loop[T]) Reset() {
	l.controller.Reset()
	l.plant.Reset()
	for _, m := range l.metrics {
		m.Reset()
	}
	l.step = 0
	l.measured = 0
}

// Step runs one controller/plant exchange against setpoint r.
func (l *Loop[T]) Step(r float64, dt float64) (dynamo.Sample, error) {
	s := dynamo.Sample{Step: l.step, Time: float64(l.step) * dt, Reference: r}

	u, err := l.controller.Calculate(T(r), l.measured, T(dt))
	if err != nil {
		return s, &dynamo.SimulationError{Step: s.Step, Time: s.Time, Wrapped: err}
	}
	l.measured = l.plant.Process(u)
	l.step++

	s.Control = float64(u)
	s.Output = float64(l.measured)

	for _, m := range l.metrics {
		m.Observe(s, dt)
	}
	for _, obs := range l.observers {
		obs.OnStep(s)
	}
	return s, nil
}

// Run resets the loop and records Duration/Dt+1 samples driven by ref.
func (l *Loop[T]) Run(ctx context.Context, ref reference.Signal, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &dynamo.Result{
		Samples: make([]dynamo.Sample, 0, steps),
		Metrics: make(map[string]float64),
	}

	l.Reset()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s, err := l.Step(ref.At(i), cfg.Dt)
		if err != nil {
			return result, err
		}
		if cfg.ValidateOutput && !s.IsValid() {
			return result, &dynamo.SimulationError{Step: s.Step, Time: s.Time, Wrapped: dynamo.ErrUnstable}
		}

		result.Samples = append(result.Samples, s)
		result.StepsTaken++
	}

	for _, m := range l.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrNonPositiveStep)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %f", cfg.Duration)
	}
	return nil
}
