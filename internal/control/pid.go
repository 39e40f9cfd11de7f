package control

import (
	"fmt"
	"math"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// PID is a discrete PID controller over the element type T.
//
// The integral term accumulates Ki*e*dt unconditionally; the only bound on it
// is the final output clamp.
type PID[T dynamo.Float] struct {
	Kp T
	Ki T
	Kd T

	integral T
	prevErr  T
	min      T
	max      T
}

// NewPID returns a controller with zero state and unbounded output.
func NewPID[T dynamo.Float](kp, ki, kd T) *PID[T] {
	return &PID[T]{
		Kp:  kp,
		Ki:  ki,
		Kd:  kd,
		min: dynamo.Lowest[T](),
		max: dynamo.Highest[T](),
	}
}

// Calculate advances the controller by one sample and returns the clamped
// control signal. A non-positive dt is rejected and leaves the state untouched.
func (p *PID[T]) Calculate(setpoint, measured, dt T) (T, error) {
	if !(dt > 0) {
		return 0, fmt.Errorf("calculate with dt=%v: %w", dt, dynamo.ErrNonPositiveStep)
	}

	err := setpoint - measured
	proportional := p.Kp * err
	p.integral += p.Ki * err * dt
	derivative := p.Kd * (err - p.prevErr) / dt
	p.prevErr = err

	return clamp(proportional+p.integral+derivative, p.min, p.max), nil
}

// Reset clears integral and derivative state. Gains and limits are kept.
func (p *PID[T]) Reset() {
	p.integral = 0
	p.prevErr = 0
}

// SetOutputLimits bounds subsequent outputs to [min, max].
func (p *PID[T]) SetOutputLimits(min, max T) error {
	if isNaN(min) || isNaN(max) || min > max {
		return fmt.Errorf("limits [%v, %v]: %w", min, max, dynamo.ErrInvalidLimits)
	}
	p.min, p.max = min, max
	return nil
}

func (p *PID[T]) OutputLimits() (T, T) { return p.min, p.max }
func (p *PID[T]) Integral() T          { return p.integral }
func (p *PID[T]) PreviousError() T     { return p.prevErr }

// GetParams returns tunable parameters for live adjustment
func (p *PID[T]) GetParams() map[string]float64 {
	return map[string]float64{
		"kp": float64(p.Kp),
		"ki": float64(p.Ki),
		"kd": float64(p.Kd),
	}
}

// SetParam adjusts a PID gain
func (p *PID[T]) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = T(value)
	case "ki":
		p.Ki = T(value)
	case "kd":
		p.Kd = T(value)
	default:
		return fmt.Errorf("pid param %q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}

func clamp[T dynamo.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isNaN[T dynamo.Float](v T) bool {
	return math.IsNaN(float64(v))
}
