package costfuncs

import (
	nd "github.com/sharnoff/nestdrop"
)

// DefaultHuberDelta is the δ of the Huber loss given by the registry
const DefaultHuberDelta float64 = 1

func init() {
	list := map[string]func() nd.CostFunction{
		MSE().TypeString():          func() nd.CostFunction { return MSE() },
		Abs().TypeString():          func() nd.CostFunction { return Abs() },
		Huber(0).TypeString():       func() nd.CostFunction { return Huber(DefaultHuberDelta) },
		CrossEntropy().TypeString(): func() nd.CostFunction { return CrossEntropy() },
	}

	for s, f := range list {
		err := nd.RegisterCostFunction(s, f)
		if err != nil {
			panic(err.Error())
		}
	}
}
