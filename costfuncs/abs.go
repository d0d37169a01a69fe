package costfuncs

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type abs struct{}

var absFuncs = elementwise{
	f: func(o, t float64) float64 {
		return math.Abs(o - t)
	},
	df: func(o, t float64) float64 {
		if o == t {
			return 0
		}
		return math.Copysign(1, o-t)
	},
}

// Abs returns the Absolute Value cost function, which implements nestdrop.CostFunction.
func Abs() *abs {
	return &abs{}
}

// L1 is a proxy for Abs
func L1() *abs {
	return Abs()
}

func (a *abs) TypeString() string {
	return "abs"
}

func (a *abs) Cost(outs, targets *mat.Dense) (float64, error) {
	return absFuncs.cost(outs, targets)
}

func (a *abs) Deriv(outs, targets *mat.Dense) (*mat.Dense, error) {
	return absFuncs.deriv(outs, targets)
}
