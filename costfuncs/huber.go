package costfuncs

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type huber struct {
	δ float64
}

// Huber returns the Huber Loss Function, which implements nestdrop.CostFunction. δ controls the
// bounds of the transition between MSE and Absolute Value.
func Huber(δ float64) *huber {
	return &huber{δ: δ}
}

func (h *huber) TypeString() string {
	return "huber"
}

func (h *huber) funcs() elementwise {
	return elementwise{
		f: func(o, t float64) float64 {
			d := math.Abs(o - t)
			if d <= h.δ {
				return 0.5 * d * d
			}
			return h.δ*d - 0.5*h.δ*h.δ
		},
		df: func(o, t float64) float64 {
			d := o - t
			if !(d < -h.δ || d > h.δ) { // d >= -h.δ && d <= h.δ
				return d
			}
			return h.δ * math.Copysign(1, d)
		},
	}
}

func (h *huber) Cost(outs, targets *mat.Dense) (float64, error) {
	return h.funcs().cost(outs, targets)
}

func (h *huber) Deriv(outs, targets *mat.Dense) (*mat.Dense, error) {
	return h.funcs().deriv(outs, targets)
}
