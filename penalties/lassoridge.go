package penalties

import (
	"math"

	nd "github.com/sharnoff/nestdrop"
)

// **********************************************
// L1 (Lasso)
// **********************************************

type l1 float64

// λ is a small value close to 0 where λ > 0
func L1(λ float64) *l1 {
	p := l1(λ)
	return &p
}

// λ is a small value close to 0 where λ > 0
func Lasso(λ float64) *l1 {
	return L1(λ)
}

func (p *l1) TypeString() string {
	return "l1-lasso"
}

// Penalize adds λ·sign(w) to the gradient of every weight. Biases are left alone.
func (p *l1) Penalize(param *nd.Param) {
	if param.Bias {
		return
	}

	λ := float64(*p)
	for i, w := range param.Value {
		if w != 0 {
			param.Grad[i] += λ * math.Copysign(1, w)
		}
	}
}

// **********************************************
// L2 (Ridge)
// **********************************************

type l2 float64

// λ is a small value close to 0 where λ > 0
func L2(λ float64) *l2 {
	p := l2(λ)
	return &p
}

// λ is a small value close to 0 where λ > 0
func Ridge(λ float64) *l2 {
	return L2(λ)
}

func (p *l2) TypeString() string {
	return "l2-ridge"
}

// Penalize adds 2λw to the gradient of every weight. Biases are left alone.
func (p *l2) Penalize(param *nd.Param) {
	if param.Bias {
		return
	}

	λ := float64(*p)
	for i, w := range param.Value {
		param.Grad[i] += 2 * λ * w
	}
}
