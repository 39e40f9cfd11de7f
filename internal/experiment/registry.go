package experiment

import (
	"sort"

	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/control"
	"github.com/san-kum/pidsim/internal/dynamo"
)

type controllerFactory[T dynamo.Float] func(p config.PIDConfig) (dynamo.Controller[T], error)

func controllers[T dynamo.Float]() map[string]controllerFactory[T] {
	return map[string]controllerFactory[T]{
		"pid": func(p config.PIDConfig) (dynamo.Controller[T], error) {
			pid := control.NewPID(T(p.Kp), T(p.Ki), T(p.Kd))
			if err := pid.SetOutputLimits(T(p.Min), T(p.Max)); err != nil {
				return nil, err
			}
			return pid, nil
		},
		"manual": func(p config.PIDConfig) (dynamo.Controller[T], error) {
			return control.NewManual(T(p.U)), nil
		},
	}
}

func ListControllers() []string {
	names := make([]string, 0)
	for name := range controllers[float64]() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
