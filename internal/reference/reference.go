// Package reference generates setpoint sequences for closed-loop runs.
package reference

import (
	"errors"
	"fmt"
)

// Signal yields the setpoint for a sample index.
type Signal interface {
	At(step int) float64
}

// Segment holds Value from sample index From until the next segment starts.
type Segment struct {
	From  int     `yaml:"from" json:"from"`
	Value float64 `yaml:"value" json:"value"`
}

// Schedule is a piecewise-constant setpoint. Steps before the first segment
// read as zero.
type Schedule struct {
	segments []Segment
}

var ErrBadSchedule = errors.New("reference: segments must start at increasing non-negative steps")

func NewSchedule(segments ...Segment) (*Schedule, error) {
	for i, s := range segments {
		if s.From < 0 || (i > 0 && s.From <= segments[i-1].From) {
			return nil, fmt.Errorf("segment %d (from=%d): %w", i, s.From, ErrBadSchedule)
		}
	}
	return &Schedule{segments: append([]Segment(nil), segments...)}, nil
}

func (s *Schedule) At(step int) float64 {
	v := 0.0
	for _, seg := range s.segments {
		if step < seg.From {
			break
		}
		v = seg.Value
	}
	return v
}

func (s *Schedule) Segments() []Segment {
	return append([]Segment(nil), s.segments...)
}

// Demo is the reference used by the phoenix demo: rest, +3.5, rest, -3.5.
func Demo() *Schedule {
	return &Schedule{segments: []Segment{
		{From: 0, Value: 0},
		{From: 10, Value: 3.5},
		{From: 40, Value: 0},
		{From: 50, Value: -3.5},
	}}
}

type Constant float64

func (c Constant) At(int) float64 { return float64(c) }
