package optimizers

import (
	"math"

	"github.com/pkg/errors"

	nd "github.com/sharnoff/nestdrop"
)

type adamState struct {
	m, v []float64
	t    int
}

type adam struct {
	β1, β2 float64
	ε      float64

	// keyed by Param, so that one Adam can serve every Param of a model
	state map[*nd.Param]*adamState
}

// Adam returns the Adam optimizer with the usual defaults: β1 = 0.9, β2 = 0.999, ε = 1e-8. The
// moment estimates are kept per Param, so an Adam should not be shared between models.
func Adam() *adam {
	return &adam{β1: 0.9, β2: 0.999, ε: 1e-8, state: make(map[*nd.Param]*adamState)}
}

// Betas sets the decay rates of the first and second moment estimates. Both must be in [0, 1).
func (a *adam) Betas(β1, β2 float64) *adam {
	if β1 < 0 || β1 >= 1 || β2 < 0 || β2 >= 1 {
		panic(errors.Errorf("adam betas must be in [0, 1) (%v, %v)", β1, β2))
	}

	a.β1, a.β2 = β1, β2
	return a
}

// Epsilon sets the term added to the denominator for stability.
func (a *adam) Epsilon(ε float64) *adam {
	a.ε = ε
	return a
}

func (a *adam) TypeString() string {
	return "adam"
}

func (a *adam) Run(p *nd.Param, learningRate float64) error {
	s, ok := a.state[p]
	if !ok {
		s = &adamState{m: make([]float64, p.Size()), v: make([]float64, p.Size())}
		a.state[p] = s
	} else if len(s.m) != p.Size() {
		return nd.SizeMismatchError{Expected: len(s.m), Got: p.Size(), What: "adam state for " + p.Name}
	}

	s.t++
	c1 := 1 - math.Pow(a.β1, float64(s.t))
	c2 := 1 - math.Pow(a.β2, float64(s.t))

	for i, g := range p.Grad {
		s.m[i] = a.β1*s.m[i] + (1-a.β1)*g
		s.v[i] = a.β2*s.v[i] + (1-a.β2)*g*g

		mHat := s.m[i] / c1
		vHat := s.v[i] / c2
		p.Value[i] -= learningRate * mHat / (math.Sqrt(vHat) + a.ε)
	}

	return nil
}
