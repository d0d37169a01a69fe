package models

import (
	"math/rand"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/layers"
)

// MLP is the dense counterpart to TriangleMLP. Every hidden layer is an ordinary Linear layer
// pre-applied through the same structured dropout as the input layer, so a budget truncates each
// hidden width independently.
type MLP struct {
	base
	hidden []*layers.Linear

	// set by training passes, cleared by Backward. cutoffs[0] is the input layer's.
	pre     []*mat.Dense
	cutoffs []int
}

// NewMLP builds an MLP from the Config. The dropout lower bound must fit within every hidden
// size, because each hidden layer draws its own cutoff.
func NewMLP(cfg Config, rng *rand.Rand) (*MLP, error) {
	b, err := newBase(cfg, rng)
	if err != nil {
		return nil, err
	}

	for i, h := range cfg.HiddenSizes {
		if cfg.Dropout.LowerBound > h {
			return nil, errors.Wrapf(nd.ErrInvalidConfig, "dropout lower bound %d is above hidden size %d (%d)", cfg.Dropout.LowerBound, i, h)
		}
	}

	m := &MLP{base: b}

	sizes := cfg.HiddenSizes
	names := []string{"init"}
	ps := [][]*nd.Param{m.init.Params()}
	for i := 0; i < len(sizes)-1; i++ {
		l, err := layers.NewLinear(sizes[i], sizes[i+1], cfg.Bias, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "Couldn't make hidden layer %d", i)
		}

		m.hidden = append(m.hidden, l)
		names = append(names, "hidden."+strconv.Itoa(i))
		ps = append(ps, l.Params())
	}

	names = append(names, "out")
	ps = append(ps, m.out.Params())
	m.collect(names, ps)

	if err := cfg.Init.Apply(m.params, rng); err != nil {
		return nil, err
	}

	return m, nil
}

// Hidden returns the hidden layers, in order.
func (m *MLP) Hidden() []*layers.Linear {
	return m.hidden
}

// Forward runs a batch through the model, truncating after the input layer and after every hidden
// layer.
func (m *MLP) Forward(x *mat.Dense, pass nd.Pass) (*mat.Dense, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}

	cutoffs := make([]int, 0, len(m.hidden)+1)
	pre := make([]*mat.Dense, 0, len(m.hidden)+1)

	h, cutoff, err := m.dropout.PreApplyLinear(m.init, x, m.init.Out(), pass)
	if err != nil {
		return nil, err
	}
	cutoffs = append(cutoffs, cutoff)

	for i, l := range m.hidden {
		pre = append(pre, h)
		h, cutoff, err = m.dropout.PreApplyLinear(l, layers.Activate(m.act, h), l.Out(), pass)
		if err != nil {
			return nil, errors.Wrapf(err, "hidden layer %d", i)
		}
		cutoffs = append(cutoffs, cutoff)
	}
	pre = append(pre, h)

	out, err := m.forwardOut(h, pass)
	if err != nil {
		return nil, err
	}

	if pass.Training {
		m.pre, m.cutoffs = pre, cutoffs
	}

	return out, nil
}

// Backward accumulates gradients for every parameter used by the last training pass.
func (m *MLP) Backward(grad *mat.Dense) error {
	if m.pre == nil {
		return errors.Wrapf(nd.ErrNoCache, "MLP")
	}

	pre, cutoffs := m.pre, m.cutoffs
	m.pre, m.cutoffs = nil, nil

	g, err := m.out.Backward(grad)
	if err != nil {
		return err
	}

	for i := len(m.hidden) - 1; i >= 0; i-- {
		g = layers.ActivateDeriv(m.act, pre[i+1], g)
		if c := cutoffs[i+1]; c != 0 {
			g.Scale(layers.Rescale(m.hidden[i].Out(), c), g)
		}

		if g, err = m.hidden[i].Backward(g); err != nil {
			return errors.Wrapf(err, "hidden layer %d", i)
		}
	}

	return m.backwardInit(layers.ActivateDeriv(m.act, pre[0], g), cutoffs[0])
}

// Apply runs the model on values of any shape whose last dimension is InFeatures.
func (m *MLP) Apply(values []float64, shape []int, pass nd.Pass) ([]float64, []int, error) {
	return m.apply(m, values, shape, pass)
}

// MaxBudget returns the widest hidden size. Every hidden layer is truncated to the budget, so a
// later layer wider than the first still changes with budgets past the first hidden size.
func (m *MLP) MaxBudget() int {
	return slices.Max(m.cfg.HiddenSizes)
}

// InferenceParameters returns the number of weights and biases used by an evaluation pass at the
// given budget. A budget of zero, or one past MaxBudget, is the full model.
func (m *MLP) InferenceParameters(budget int) int {
	w := m.width(budget)
	n := m.init.UsedParams(w, m.cfg.InFeatures)

	for _, l := range m.hidden {
		rows := l.Out()
		if budget > 0 && budget < rows {
			rows = budget
		}

		n += l.UsedParams(rows, w)
		w = rows
	}

	return n + m.out.UsedParams(m.cfg.OutFeatures, w)
}

// NumberInferenceParameters returns InferenceParameters at the latent budget.
func (m *MLP) NumberInferenceParameters() int {
	return m.InferenceParameters(m.LatentBudget())
}
