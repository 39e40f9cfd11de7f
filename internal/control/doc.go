// Package control provides feedback controllers for discrete-time loops.
//
// Controllers implement [dynamo.Controller] and compute an actuation from a
// setpoint, a measurement and the sample period:
//
//   - [PID]: Proportional-Integral-Derivative controller with output clamp
//   - [Manual]: open-loop controller holding a fixed actuation
//
// # Usage
//
//	pid := control.NewPID(0.85, 0.15, 0.3) // Kp, Ki, Kd
//	_ = pid.SetOutputLimits(-5, 5)
//	u, err := pid.Calculate(setpoint, measured, dt)
//
// [PID] implements [dynamo.Configurable] for live tuning.
package control
