// Package dynamo provides the shared primitives for discrete-time control loops.
//
// The package defines the numeric element constraint and the small interfaces
// the loop runner composes:
//
//   - [Float]: element type constraint (float32 or float64 based types)
//   - [Controller]: computes an actuation from setpoint and measurement
//   - [Plant]: advances a discrete system by one sample
//   - [Metric], [Observer]: per-step instrumentation
//   - [Result]: recorded time series of a run
//
// # Example
//
//	pid := control.NewPID(0.85, 0.15, 0.3)
//	plant, _ := models.NewPlant([]float64{1, 0.5}, []float64{1, -0.8, 0.3})
//	loop := sim.New[float64](pid, plant)
//	result, _ := loop.Run(ctx, reference.Demo(), dynamo.DefaultConfig())
//
// # Thread Safety
//
// Controllers and plants are NOT thread-safe. Each instance belongs to exactly
// one loop; run independent loops concurrently with sim.RunAll.
package dynamo
