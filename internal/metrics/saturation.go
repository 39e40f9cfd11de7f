package metrics

import (
	"math"

	"github.com/san-kum/pidsim/internal/dynamo"
)

// Saturation is the fraction of samples where the actuation sits on either
// output limit. An infinite bound is never reached.
type Saturation struct {
	lo, hi    float64
	saturated int
	samples   int
}

func NewSaturation(lo, hi float64) *Saturation {
	return &Saturation{lo: lo, hi: hi}
}

func (s *Saturation) Name() string { return "saturation" }

func (s *Saturation) Observe(x dynamo.Sample, dt float64) {
	s.samples++
	atLow := !math.IsInf(s.lo, 0) && x.Control <= s.lo
	atHigh := !math.IsInf(s.hi, 0) && x.Control >= s.hi
	if atLow || atHigh {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
