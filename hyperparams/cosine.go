package hyperparams

import (
	"math"
)

type cosine struct {
	base, floor float64
	iters       int
}

// Cosine returns a HyperParameter that anneals from base down to floor over 'iters' iterations
// along half a cosine, staying at floor afterwards.
func Cosine(base, floor float64, iters int) *cosine {
	if iters < 1 {
		iters = 1
	}
	return &cosine{base, floor, iters}
}

func (c *cosine) TypeString() string {
	return "cosine"
}

func (c *cosine) Value(iter int) float64 {
	if iter >= c.iters {
		return c.floor
	} else if iter < 0 {
		iter = 0
	}

	progress := float64(iter) / float64(c.iters)
	return c.floor + 0.5*(c.base-c.floor)*(1+math.Cos(math.Pi*progress))
}
