package models

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/layers"
)

// base holds what both kinds of model have in common: a full linear layer into the first hidden
// width, pre-applied through a structured dropout, and a linear layer out of the last hidden
// width that is sliced down to whatever width reaches it.
type base struct {
	cfg Config
	act layers.Activation

	init    *layers.Linear
	dropout *layers.StructuredDropout
	out     *layers.Linear

	params []*nd.Param
}

func newBase(cfg Config, rng *rand.Rand) (base, error) {
	if rng == nil {
		return base{}, nd.NilArg("rng")
	} else if err := cfg.Validate(); err != nil {
		return base{}, err
	}

	b := base{cfg: cfg}
	b.cfg.HiddenSizes = append([]int(nil), cfg.HiddenSizes...)

	var err error
	if b.act, err = layers.ParseActivation(cfg.Activation); err != nil {
		return base{}, err
	}

	hidden := cfg.HiddenSizes
	if b.init, err = layers.NewLinear(cfg.InFeatures, hidden[0], cfg.Bias, rng); err != nil {
		return base{}, errors.Wrapf(err, "Couldn't make input layer")
	}

	d := cfg.Dropout
	if b.dropout, err = layers.NewStructuredDropout(d.P, d.LowerBound, d.ZeroPad, rng); err != nil {
		return base{}, errors.Wrapf(err, "Couldn't make dropout")
	}

	if b.out, err = layers.NewLinear(hidden[len(hidden)-1], cfg.OutFeatures, cfg.Bias, rng); err != nil {
		return base{}, errors.Wrapf(err, "Couldn't make output layer")
	}

	return b, nil
}

// collect names and gathers the Params of each of the layers, in order. The names are what Save
// writes the values under.
func (b *base) collect(names []string, ls [][]*nd.Param) {
	for i, ps := range ls {
		for _, p := range ps {
			p.Name = names[i] + "." + p.Name
			b.params = append(b.params, p)
		}
	}
}

// Config returns a copy of the Config the model was built with
func (b *base) Config() Config {
	c := b.cfg
	c.HiddenSizes = append([]int(nil), b.cfg.HiddenSizes...)
	return c
}

// Params returns every learnable parameter: the input layer's, then the hidden layers', then the
// output layer's.
func (b *base) Params() []*nd.Param {
	return b.params
}

// SetLatentBudget sets the number of features kept after the input layer by evaluation passes.
// A width of zero clears it.
func (b *base) SetLatentBudget(width int) error {
	return b.dropout.SetLatentBudget(width)
}

// LatentBudget returns the width set by SetLatentBudget, or zero if there isn't one.
func (b *base) LatentBudget() int {
	return b.dropout.LatentBudget()
}

// MaxBudget returns the first hidden size. The budget only truncates the input layer, so budgets
// past it have no effect.
func (b *base) MaxBudget() int {
	return b.cfg.HiddenSizes[0]
}

// width returns the number of features that leave the input layer at the given budget
func (b *base) width(budget int) int {
	if first := b.cfg.HiddenSizes[0]; budget <= 0 || budget > first {
		return first
	}
	return budget
}

// checkInput makes sure that x is a batch with exactly InFeatures columns
func (b *base) checkInput(x *mat.Dense) error {
	if x == nil {
		return nd.NilArg("input")
	} else if _, c := x.Dims(); c != b.cfg.InFeatures {
		return nd.SizeMismatchError{Expected: b.cfg.InFeatures, Got: c, What: "model input"}
	}
	return nil
}

// forwardOut applies the activation and then the output layer, using only the columns of its
// weight matrix that correspond to the width of x.
func (b *base) forwardOut(x *mat.Dense, pass nd.Pass) (*mat.Dense, error) {
	return b.out.Forward(layers.Activate(b.act, x), pass)
}

// backwardInit runs the gradient at the output of the dropout back through the input layer,
// undoing the rescale that PreApplyLinear did.
func (b *base) backwardInit(grad *mat.Dense, cutoff int) error {
	if cutoff != 0 {
		grad = mat.DenseCopyOf(grad)
		grad.Scale(layers.Rescale(b.init.Out(), cutoff), grad)
	}

	_, err := b.init.Backward(grad)
	return err
}

// Apply runs the model on values with the given shape. Every dimension but the last is treated as
// part of the batch, and the last must be InFeatures. The result has the same leading dimensions,
// with OutFeatures as the last.
func (b *base) apply(m nd.Model, values []float64, shape []int, pass nd.Pass) ([]float64, []int, error) {
	if len(shape) == 0 {
		return nil, nil, errors.Wrapf(nd.ErrInvalidConfig, "can't apply the model to a scalar")
	}

	size := 1
	for _, s := range shape {
		if s < 1 {
			return nil, nil, errors.Wrapf(nd.ErrInvalidConfig, "shape %v has a non-positive dimension", shape)
		}
		size *= s
	}

	if len(values) != size {
		return nil, nil, nd.SizeMismatchError{Expected: size, Got: len(values), What: "values for shape"}
	}

	last := shape[len(shape)-1]
	if last != b.cfg.InFeatures {
		return nil, nil, nd.SizeMismatchError{Expected: b.cfg.InFeatures, Got: last, What: "model input"}
	}

	out, err := m.Forward(mat.NewDense(size/last, last, values), pass)
	if err != nil {
		return nil, nil, err
	}

	outShape := append(append([]int(nil), shape[:len(shape)-1]...), b.cfg.OutFeatures)
	return mat.DenseCopyOf(out).RawMatrix().Data, outShape, nil
}
