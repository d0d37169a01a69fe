package hyperparams

import (
	nd "github.com/sharnoff/nestdrop"
)

// DefaultLearningRate is the value the registered HyperParameters start at.
const DefaultLearningRate float64 = 0.01

func init() {
	list := map[string]func() nd.HyperParameter{
		Constant(0).TypeString():     func() nd.HyperParameter { return Constant(DefaultLearningRate) },
		Step(0).TypeString():         func() nd.HyperParameter { return Step(DefaultLearningRate) },
		Cosine(0, 0, 1).TypeString(): func() nd.HyperParameter { return Cosine(DefaultLearningRate, 0, 1000) },
	}

	for s, f := range list {
		err := nd.RegisterHyperParameter(s, f)
		if err != nil {
			panic(err.Error())
		}
	}
}
