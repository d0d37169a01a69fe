package layers

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// Linear is an ordinary fully-connected layer, y = x·Wᵀ + b, that can be evaluated against only
// a leading block of its weight matrix: the first 'rows' outputs and the first x.Cols inputs. The
// block is a view into the full matrix, so nothing is recomputed or copied to truncate it.
type Linear struct {
	in, out int

	weight *nd.Param
	bias   *nd.Param // nil if the layer has no bias

	// views over weight.Value and weight.Grad, out x in
	w, dw *mat.Dense

	// set by training passes, cleared by Backward
	x    *mat.Dense
	rows int
}

// NewLinear returns a Linear layer with 'in' inputs and 'out' outputs. Weights (and biases, if
// 'bias' is true) are drawn uniformly from ±1/sqrt(in).
func NewLinear(in, out int, bias bool, rng *rand.Rand) (*Linear, error) {
	if in < 1 || out < 1 {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "linear layer must have positive sizes (in: %d, out: %d)", in, out)
	} else if rng == nil {
		return nil, nd.NilArg("rng")
	}

	l := &Linear{in: in, out: out}
	l.weight = nd.NewParam("weight", in*out, in, out, false)
	l.w = mat.NewDense(out, in, l.weight.Value)
	l.dw = mat.NewDense(out, in, l.weight.Grad)

	bound := 1 / math.Sqrt(float64(in))
	for i := range l.weight.Value {
		l.weight.Value[i] = (2*rng.Float64() - 1) * bound
	}

	if bias {
		l.bias = nd.NewParam("bias", out, in, out, true)
		for i := range l.bias.Value {
			l.bias.Value[i] = (2*rng.Float64() - 1) * bound
		}
	}

	return l, nil
}

// In returns the number of input features the layer was built for.
func (l *Linear) In() int {
	return l.in
}

// Out returns the number of output features the layer was built for.
func (l *Linear) Out() int {
	return l.out
}

// Weight returns the full out x in weight matrix. It is not a copy.
func (l *Linear) Weight() *mat.Dense {
	return l.w
}

// Bias returns the bias vector, or nil if the layer has none. It is not a copy.
func (l *Linear) Bias() []float64 {
	if l.bias == nil {
		return nil
	}
	return l.bias.Value
}

// Params returns the weight and, if present, bias Params.
func (l *Linear) Params() []*nd.Param {
	if l.bias == nil {
		return []*nd.Param{l.weight}
	}
	return []*nd.Param{l.weight, l.bias}
}

// UsedParams returns the number of weights and biases touched when evaluating the first 'rows'
// outputs from the first 'cols' inputs.
func (l *Linear) UsedParams(rows, cols int) int {
	n := rows * cols
	if l.bias != nil {
		n += rows
	}
	return n
}

// Forward computes every output from the first x.Cols inputs. Passing fewer columns than In() is
// how a truncated hidden vector is fed into a full-width layer.
func (l *Linear) Forward(x *mat.Dense, pass nd.Pass) (*mat.Dense, error) {
	return l.ForwardRows(x, l.out, pass)
}

// ForwardRows computes only the first 'rows' outputs, using the first 'rows' rows of the weight
// matrix and bias. This is the same as slicing the result of Forward, but doesn't compute the
// discarded outputs.
func (l *Linear) ForwardRows(x *mat.Dense, rows int, pass nd.Pass) (*mat.Dense, error) {
	r, c := x.Dims()
	if c > l.in {
		return nil, nd.SizeMismatchError{Expected: l.in, Got: c, What: "linear layer input", AtMost: true}
	} else if rows < 1 || rows > l.out {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "can't use %d output rows of a linear layer with %d outputs", rows, l.out)
	}

	out := mat.NewDense(r, rows, nil)
	out.Mul(x, l.w.Slice(0, rows, 0, c).T())

	if l.bias != nil {
		b := l.bias.Value[:rows]
		for i := 0; i < r; i++ {
			floats.Add(out.RawRowView(i), b)
		}
	}

	if pass.Training {
		l.x = x
		l.rows = rows
	}

	return out, nil
}

// Backward accumulates the gradients of the block of weights used by the last training pass and
// returns the gradient w.r.t. that pass's input.
func (l *Linear) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if l.x == nil {
		return nil, errors.Wrapf(nd.ErrNoCache, "linear layer")
	}

	x, rows := l.x, l.rows
	l.x = nil

	r, c := x.Dims()
	if gr, gc := grad.Dims(); gr != r || gc != rows {
		return nil, nd.SizeMismatchError{Expected: rows, Got: gc, What: "linear layer gradient"}
	}

	dw := l.dw.Slice(0, rows, 0, c).(*mat.Dense)
	var tmp mat.Dense
	tmp.Mul(grad.T(), x)
	dw.Add(dw, &tmp)

	if l.bias != nil {
		db := l.bias.Grad[:rows]
		for i := 0; i < r; i++ {
			floats.Add(db, grad.RawRowView(i))
		}
	}

	gradIn := mat.NewDense(r, c, nil)
	gradIn.Mul(grad, l.w.Slice(0, rows, 0, c))
	return gradIn, nil
}
