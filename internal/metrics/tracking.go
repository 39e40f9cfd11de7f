package metrics

import (
	"math"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// IAE integrates the absolute tracking error over time.
type IAE struct {
	sum float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s dynamo.Sample, dt float64) {
	m.sum += math.Abs(s.TrackingError()) * dt
}

func (m *IAE) Value() float64 { return m.sum }
func (m *IAE) Reset()         { m.sum = 0 }

// ISE integrates the squared tracking error over time.
type ISE struct {
	sum float64
}

func NewISE() *ISE { return &ISE{} }

func (m *ISE) Name() string { return "ise" }

func (m *ISE) Observe(s dynamo.Sample, dt float64) {
	e := s.TrackingError()
	m.sum += e * e * dt
}

func (m *ISE) Value() float64 { return m.sum }
func (m *ISE) Reset()         { m.sum = 0 }

// Overshoot is the largest excursion of the output beyond a non-zero
// reference, relative to that reference. Undershoot does not count.
type Overshoot struct {
	max float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s dynamo.Sample, dt float64) {
	if s.Reference == 0 {
		return
	}
	if o := (s.Output - s.Reference) / s.Reference; o > m.max {
		m.max = o
	}
}

func (m *Overshoot) Value() float64 { return m.max }
func (m *Overshoot) Reset()         { m.max = 0 }

// Defaults returns the metric set recorded for every run.
func Defaults(lo, hi, stabilityBound float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewIAE(),
		NewISE(),
		NewOvershoot(),
		NewSaturation(lo, hi),
		NewStability(stabilityBound),
	}
}
