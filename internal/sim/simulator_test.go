package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pidsim/internal/control"
	"github.com/san-kum/pidsim/internal/dynamo"
	"github.com/san-kum/pidsim/internal/models"
	"github.com/san-kum/pidsim/internal/reference"
)

func demoLoop(t *testing.T) *Loop[float64] {
	t.Helper()
	pid := control.NewPID(0.85, 0.15, 0.3)
	require.NoError(t, pid.SetOutputLimits(-5, 5))
	plant, err := models.NewPlant([]float64{1.0, 0.5}, []float64{1.0, -0.8, 0.3})
	require.NoError(t, err)
	return New[float64](pid, plant)
}

func TestLoopRunDemo(t *testing.T) {
	loop := demoLoop(t)
	cfg := dynamo.Config{Dt: 1, Duration: 100, ValidateOutput: true}

	result, err := loop.Run(context.Background(), reference.Demo(), cfg)
	require.NoError(t, err)
	require.Len(t, result.Samples, 101)
	assert.Equal(t, 101, result.StepsTaken)

	for _, s := range result.Samples[:10] {
		assert.Zero(t, s.Control)
		assert.Zero(t, s.Output)
	}

	first := result.Samples[10]
	assert.Equal(t, 10.0, first.Time)
	assert.Equal(t, 3.5, first.Reference)
	assert.InDelta(t, 4.55, first.Control, 1e-12)
	assert.InDelta(t, 4.55, first.Output, 1e-12)

	for _, s := range result.Samples {
		assert.GreaterOrEqual(t, s.Control, -5.0)
		assert.LessOrEqual(t, s.Control, 5.0)
	}
}

func TestLoopRunIsRepeatable(t *testing.T) {
	loop := demoLoop(t)
	cfg := dynamo.Config{Dt: 1, Duration: 60}

	a, err := loop.Run(context.Background(), reference.Demo(), cfg)
	require.NoError(t, err)
	b, err := loop.Run(context.Background(), reference.Demo(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Samples, b.Samples)
}

func TestLoopInvalidConfig(t *testing.T) {
	loop := demoLoop(t)

	tests := []struct {
		name string
		cfg  dynamo.Config
	}{
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1.0}},
		{"negative dt", dynamo.Config{Dt: -0.1, Duration: 1.0}},
		{"negative duration", dynamo.Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loop.Run(context.Background(), reference.Constant(1), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoopStepRejectsZeroDt(t *testing.T) {
	loop := demoLoop(t)
	_, err := loop.Step(1, 0)

	var simErr *dynamo.SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, 0, simErr.Step)
	assert.ErrorIs(t, err, dynamo.ErrNonPositiveStep)
}

func TestLoopDetectsDivergence(t *testing.T) {
	plant, err := models.NewPlant([]float64{1}, []float64{1, -2})
	require.NoError(t, err)
	loop := New[float64](control.NewManual(1.0), plant)

	cfg := dynamo.Config{Dt: 1, Duration: 5000, ValidateOutput: true}
	result, err := loop.Run(context.Background(), reference.Constant(0), cfg)

	assert.ErrorIs(t, err, dynamo.ErrUnstable)
	assert.Less(t, len(result.Samples), 5001)
}

func TestLoopCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := demoLoop(t).Run(ctx, reference.Demo(), dynamo.DefaultConfig())
	assert.True(t, errors.Is(err, context.Canceled))
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(s dynamo.Sample, dt float64) {
	m.count++
	m.sum += s.Output
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

type recorder struct {
	steps []int
}

func (r *recorder) OnStep(s dynamo.Sample) { r.steps = append(r.steps, s.Step) }

func TestLoopMetricsAndObservers(t *testing.T) {
	loop := demoLoop(t)
	metric := &testMetric{}
	rec := &recorder{}
	loop.AddMetric(metric)
	loop.AddObserver(rec)

	cfg := dynamo.Config{Dt: 0.5, Duration: 5}
	result, err := loop.Run(context.Background(), reference.Constant(1), cfg)
	require.NoError(t, err)

	_, ok := result.Metrics["test"]
	assert.True(t, ok, "metric not found in result")
	assert.Equal(t, 11, metric.count)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, rec.steps)
	assert.Equal(t, 5.0, result.Samples[10].Time)
}

func TestRunAll(t *testing.T) {
	cfg := dynamo.Config{Dt: 1, Duration: 10}
	jobs := []Job{
		{Name: "a", Loop: demoLoop(t), Reference: reference.Constant(1), Config: cfg},
		{Name: "b", Loop: demoLoop(t), Reference: reference.Constant(2), Config: cfg},
	}

	results, err := RunAll(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Samples, 11)
	assert.Equal(t, 2.0, results[1].Samples[0].Reference)
}

func TestRunAllPropagatesFailure(t *testing.T) {
	jobs := []Job{
		{Name: "ok", Loop: demoLoop(t), Reference: reference.Constant(1), Config: dynamo.Config{Dt: 1, Duration: 10}},
		{Name: "broken", Loop: demoLoop(t), Reference: reference.Constant(1), Config: dynamo.Config{Dt: 0, Duration: 10}},
	}

	_, err := RunAll(context.Background(), jobs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.ErrorIs(t, err, dynamo.ErrNonPositiveStep)
}
