package costfuncs

import (
	"gonum.org/v1/gonum/mat"
)

type mse struct{}

var mseFuncs = elementwise{
	f: func(o, t float64) float64 {
		d := o - t
		return 0.5 * d * d // faster than math.Pow
	},
	df: func(o, t float64) float64 {
		return o - t
	},
}

// MSE returns the mean squared error cost function, which implements nestdrop.CostFunction. The
// cost of each row is half the sum of its squared errors.
func MSE() *mse {
	return &mse{}
}

// L2 is a proxy for MSE
func L2() *mse {
	return MSE()
}

func (m *mse) TypeString() string {
	return "mse"
}

func (m *mse) Cost(outs, targets *mat.Dense) (float64, error) {
	return mseFuncs.cost(outs, targets)
}

func (m *mse) Deriv(outs, targets *mat.Dense) (*mat.Dense, error) {
	return mseFuncs.deriv(outs, targets)
}
