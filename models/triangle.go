package models

import (
	"math/rand"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/layers"
)

// TriangleMLP is an MLP whose hidden layers are triangular, so that a budget chosen after the
// input layer carries through every hidden layer: the first k features only ever reach a fixed,
// nested set of weights and outputs.
type TriangleMLP struct {
	base
	hidden []*layers.TriangleLinear

	// set by training passes, cleared by Backward
	pre    []*mat.Dense
	cutoff int
}

// NewTriangleMLP builds a TriangleMLP from the Config. rng is used for the initial values and is
// kept by the dropout for drawing cutoffs.
func NewTriangleMLP(cfg Config, rng *rand.Rand) (*TriangleMLP, error) {
	b, err := newBase(cfg, rng)
	if err != nil {
		return nil, err
	}

	m := &TriangleMLP{base: b}

	sizes := cfg.HiddenSizes
	names := []string{"init"}
	ps := [][]*nd.Param{m.init.Params()}
	for i := 0; i < len(sizes)-1; i++ {
		flip := cfg.Flip && i%2 == 1
		l, err := layers.NewTriangleLinear(sizes[i], sizes[i+1], cfg.Bias, flip, cfg.Backflow, rng)
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

// Hidden returns the triangular hidden layers, in order.
func (m *TriangleMLP) Hidden() []*layers.TriangleLinear {
	return m.hidden
}

// Forward runs a batch through the model. The input layer is pre-applied through the dropout, so
// only the features that survive it are computed; every later layer then works on whatever width
// reaches it.
func (m *TriangleMLP) Forward(x *mat.Dense, pass nd.Pass) (*mat.Dense, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}

	h, cutoff, err := m.dropout.PreApplyLinear(m.init, x, m.init.Out(), pass)
	if err != nil {
		return nil, err
	}

	pre := make([]*mat.Dense, 0, len(m.hidden)+1)
	for i, l := range m.hidden {
		pre = append(pre, h)
		if h, err = l.Forward(layers.Activate(m.act, h), pass); err != nil {
			return nil, errors.Wrapf(err, "hidden layer %d", i)
		}
	}
	pre = append(pre, h)

	out, err := m.forwardOut(h, pass)
	if err != nil {
		return nil, err
	}

	if pass.Training {
		m.pre, m.cutoff = pre, cutoff
	}

	return out, nil
}

// Backward accumulates gradients for every parameter used by the last training pass.
func (m *TriangleMLP) Backward(grad *mat.Dense) error {
	if m.pre == nil {
		return errors.Wrapf(nd.ErrNoCache, "triangle MLP")
	}

	pre, cutoff := m.pre, m.cutoff
	m.pre, m.cutoff = nil, 0

	g, err := m.out.Backward(grad)
	if err != nil {
		return err
	}

	for i := len(m.hidden) - 1; i >= 0; i-- {
		g = layers.ActivateDeriv(m.act, pre[i+1], g)
		if g, err = m.hidden[i].Backward(g); err != nil {
			return errors.Wrapf(err, "hidden layer %d", i)
		}
	}

	return m.backwardInit(layers.ActivateDeriv(m.act, pre[0], g), cutoff)
}

// Apply runs the model on values of any shape whose last dimension is InFeatures.
func (m *TriangleMLP) Apply(values []float64, shape []int, pass nd.Pass) ([]float64, []int, error) {
	return m.apply(m, values, shape, pass)
}

// InferenceParameters returns the number of weights and biases used by an evaluation pass at the
// given budget. A budget of zero, or one past MaxBudget, is the full model.
func (m *TriangleMLP) InferenceParameters(budget int) int {
	w := m.width(budget)
	n := m.init.UsedParams(w, m.cfg.InFeatures)

	for _, l := range m.hidden {
		n += l.UsedParams(w)
		w = l.Rows(w)
	}

	return n + m.out.UsedParams(m.cfg.OutFeatures, w)
}

// NumberInferenceParameters returns InferenceParameters at the latent budget.
func (m *TriangleMLP) NumberInferenceParameters() int {
	return m.InferenceParameters(m.LatentBudget())
}
