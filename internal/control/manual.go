package control

import (
	"fmt"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// Manual ignores the loop error and holds a fixed actuation.
// Used for open-loop step responses of a plant.
type Manual[T dynamo.Float] struct {
	U T
}

func NewManual[T dynamo.Float](u T) *Manual[T] {
	return &Manual[T]{U: u}
}

// Calculate returns the stored actuation.
func (m *Manual[T]) Calculate(setpoint, measured, dt T) (T, error) {
	if !(dt > 0) {
		return 0, fmt.Errorf("calculate with dt=%v: %w", dt, dynamo.ErrNonPositiveStep)
	}
	return m.U, nil
}

func (m *Manual[T]) Reset() {}

func (m *Manual[T]) GetParams() map[string]float64 {
	return map[string]float64{"u": float64(m.U)}
}

func (m *Manual[T]) SetParam(name string, value float64) error {
	if name != "u" {
		return fmt.Errorf("manual param %q: %w", name, dynamo.ErrUnknownParam)
	}
	m.U = T(value)
	return nil
}
