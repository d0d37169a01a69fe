package optimizers

import (
	nd "github.com/sharnoff/nestdrop"
)

type gradientdescent int8

// GradientDescent returns plain stochastic gradient descent: each value moves by -learningRate
// times its gradient.
func GradientDescent() gradientdescent {
	return gradientdescent(0)
}

// SGD is a proxy for GradientDescent
func SGD() gradientdescent {
	return GradientDescent()
}

func (g gradientdescent) TypeString() string {
	return "sgd"
}

func (g gradientdescent) Run(p *nd.Param, learningRate float64) error {
	for i := range p.Value {
		p.Value[i] -= learningRate * p.Grad[i]
	}

	return nil
}
