package dynamo

import (
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Float is the element type accepted by controllers and plants.
type Float = constraints.Float

// Highest returns the largest finite value representable by T.
func Highest[T Float]() T {
	var zero T
	if unsafe.Sizeof(zero) == 4 {
		v := float32(math.MaxFloat32)
		return T(v)
	}
	v := math.MaxFloat64
	return T(v)
}

// Lowest returns the most negative finite value representable by T.
func Lowest[T Float]() T {
	return -Highest[T]()
}

type Controller[T Float] interface {
	Calculate(setpoint, measured, dt T) (T, error)
	Reset()
}

type Plant[T Float] interface {
	Process(input T) T
	Reset()
}

// Configurable is implemented by components that support live tuning.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Sample is one recorded step of a closed loop.
type Sample struct {
	Step      int     `json:"step"`
	Time      float64 `json:"time"`
	Reference float64 `json:"reference"`
	Control   float64 `json:"control"`
	Output    float64 `json:"output"`
}

// TrackingError is the reference minus the plant output after the step.
func (s Sample) TrackingError() float64 {
	return s.Reference - s.Output
}

func (s Sample) IsValid() bool {
	for _, v := range [...]float64{s.Control, s.Output} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample, dt float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Config struct {
	Dt             float64
	Duration       float64
	ValidateOutput bool
}

func DefaultConfig() Config {
	return Config{
		Dt:             1.0,
		Duration:       100.0,
		ValidateOutput: true,
	}
}

// Steps is the number of samples a run with this config records.
func (c Config) Steps() int {
	return int(c.Duration/c.Dt) + 1
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
}

func (r *Result) Times() []float64 {
	return r.column(func(s Sample) float64 { return s.Time })
}

func (r *Result) References() []float64 {
	return r.column(func(s Sample) float64 { return s.Reference })
}

func (r *Result) Controls() []float64 {
	return r.column(func(s Sample) float64 { return s.Control })
}

func (r *Result) Outputs() []float64 {
	return r.column(func(s Sample) float64 { return s.Output })
}

func (r *Result) column(pick func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = pick(s)
	}
	return out
}
