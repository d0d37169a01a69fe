package layers

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// TriangleLinear is a linear layer whose weight matrix is upper triangular, offset by its
// diagonal. Because of the triangular structure, the first k inputs only ever reach a bounded,
// nested set of weights and outputs, so sparsity in the input is retained in the output.
//
// Only the weights allowed by the mask are stored. They are kept flat and ordered column by
// column, which puts every weight reachable from the first k inputs ahead of every weight that
// isn't: evaluating at a smaller width uses a prefix of the same vector, and never reassigns a
// weight to a different position.
type TriangleLinear struct {
	in, out  int
	backflow int
	diagonal int
	flip     bool

	// mask[r][c] is true if weight (r, c) exists. out x in.
	mask [][]bool

	// colStart[c] is the index in weight.Value of the first weight in column c. It has in+1
	// entries; colStart[in] is the total number of weights.
	colStart []int

	weight *nd.Param
	bias   *nd.Param // nil if the layer has no bias

	// set by training passes, cleared by Backward
	x *mat.Dense
	d *mat.Dense
}

// NewTriangleLinear returns a TriangleLinear layer. 'backflow' widens the band below the diagonal,
// allowing that many extra outputs to be reached from each input. If 'flip' is true, the order of
// the outputs is reversed.
//
// Weights and biases start uniformly random in [0, 1).
func NewTriangleLinear(in, out int, bias, flip bool, backflow int, rng *rand.Rand) (*TriangleLinear, error) {
	if in < 1 || out < 1 {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "triangle layer must have positive sizes (in: %d, out: %d)", in, out)
	} else if backflow < 0 {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "backflow must be non-negative (%d)", backflow)
	} else if rng == nil {
		return nil, nd.NilArg("rng")
	}

	t := &TriangleLinear{
		in:       in,
		out:      out,
		backflow: backflow,
		diagonal: min(in-out, 0) - backflow,
		flip:     flip,
	}

	t.mask = make([][]bool, out)
	for r := range t.mask {
		t.mask[r] = make([]bool, in)
		for c := range t.mask[r] {
			t.mask[r][c] = c-r >= t.diagonal
		}
	}

	t.colStart = make([]int, in+1)
	for c := 0; c < in; c++ {
		t.colStart[c+1] = t.colStart[c] + t.colHeight(c)
	}

	size := t.colStart[in]
	if size == 0 {
		return nil, errors.Wrapf(nd.ErrDegenerateMask, "no weights for %d -> %d with diagonal %d", in, out, t.diagonal)
	} else if size == in*out && size > 1 {
		// only a 1x1 layer is both dense and triangular
		return nil, errors.Wrapf(nd.ErrDegenerateMask, "mask covers the whole %d x %d matrix (backflow %d)", out, in, backflow)
	}

	t.weight = nd.NewParam("weight", size, in, out, false)
	for i := range t.weight.Value {
		t.weight.Value[i] = rng.Float64()
	}

	if bias {
		t.bias = nd.NewParam("bias", out, in, out, true)
		for i := range t.bias.Value {
			t.bias.Value[i] = rng.Float64()
		}
	}

	return t, nil
}

// colHeight returns the number of rows of column c that are in the mask. Row r is in the mask iff
// c - r >= diagonal, and the diagonal is never positive, so this is at least one.
func (t *TriangleLinear) colHeight(c int) int {
	return min(t.out, c-t.diagonal+1)
}

// In returns the number of input features the layer was built for.
func (t *TriangleLinear) In() int {
	return t.in
}

// Out returns the number of output features the layer was built for.
func (t *TriangleLinear) Out() int {
	return t.out
}

// Diagonal returns min(in-out, 0) - backflow, the offset of the triangular mask.
func (t *TriangleLinear) Diagonal() int {
	return t.diagonal
}

// Backflow returns the backflow the layer was built with.
func (t *TriangleLinear) Backflow() int {
	return t.backflow
}

// Flipped returns whether the layer reverses its outputs.
func (t *TriangleLinear) Flipped() bool {
	return t.flip
}

// Mask returns a copy of the out x in weight mask.
func (t *TriangleLinear) Mask() [][]bool {
	m := make([][]bool, len(t.mask))
	for r := range t.mask {
		m[r] = make([]bool, len(t.mask[r]))
		copy(m[r], t.mask[r])
	}
	return m
}

// NumWeights returns the number of learnable weights, which is the number of true entries in the
// mask.
func (t *TriangleLinear) NumWeights() int {
	return t.colStart[t.in]
}

// Params returns the flat weight and, if present, bias Params.
func (t *TriangleLinear) Params() []*nd.Param {
	if t.bias == nil {
		return []*nd.Param{t.weight}
	}
	return []*nd.Param{t.weight, t.bias}
}

// Rows returns the number of outputs produced from the first sz inputs: min(sz - diagonal, out).
func (t *TriangleLinear) Rows(sz int) int {
	return min(sz-t.diagonal, t.out)
}

// UsedParams returns the number of weights and biases used when the layer is given sz inputs.
func (t *TriangleLinear) UsedParams(sz int) int {
	sz = min(sz, t.in)
	n := t.colStart[sz]
	if t.bias != nil {
		n += t.Rows(sz)
	}
	return n
}

// Dense builds the Rows(sz) x sz weight matrix for the first sz inputs, which is the sub-mask
// mask[:sz-diagonal, :sz] with the first NumWeights(sz) weights scattered into it and zeros
// elsewhere.
func (t *TriangleLinear) Dense(sz int) *mat.Dense {
	rows := t.Rows(sz)
	d := mat.NewDense(rows, sz, nil)
	for c := 0; c < sz; c++ {
		start := t.colStart[c]
		for r := 0; r < t.colHeight(c); r++ {
			d.Set(r, c, t.weight.Value[start+r])
		}
	}
	return d
}

// Forward computes the outputs for the x.Cols inputs given. It fails if there are more inputs
// than the layer was built for; it never truncates them.
func (t *TriangleLinear) Forward(x *mat.Dense, pass nd.Pass) (*mat.Dense, error) {
	r, sz := x.Dims()
	if sz > t.in {
		return nil, nd.SizeMismatchError{Expected: t.in, Got: sz, What: "triangle layer input", AtMost: true}
	}

	d := t.Dense(sz)
	rows, _ := d.Dims()

	out := mat.NewDense(r, rows, nil)
	out.Mul(x, d.T())

	if t.bias != nil {
		b := t.bias.Value[:rows]
		for i := 0; i < r; i++ {
			floats.Add(out.RawRowView(i), b)
		}
	}

	if t.flip {
		reverseCols(out)
	}

	if pass.Training {
		t.x = x
		t.d = d
	}

	return out, nil
}

// Backward accumulates the gradients of the weights and biases used by the last training pass and
// returns the gradient w.r.t. that pass's input.
func (t *TriangleLinear) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if t.x == nil {
		return nil, errors.Wrapf(nd.ErrNoCache, "triangle layer")
	}

	x, d := t.x, t.d
	t.x, t.d = nil, nil

	r, sz := x.Dims()
	rows, _ := d.Dims()
	if gr, gc := grad.Dims(); gr != r || gc != rows {
		return nil, nd.SizeMismatchError{Expected: rows, Got: gc, What: "triangle layer gradient"}
	}

	if t.flip {
		grad = mat.DenseCopyOf(grad)
		reverseCols(grad)
	}

	var dd mat.Dense
	dd.Mul(grad.T(), x)
	for c := 0; c < sz; c++ {
		start := t.colStart[c]
		for row := 0; row < t.colHeight(c); row++ {
			t.weight.Grad[start+row] += dd.At(row, c)
		}
	}

	if t.bias != nil {
		db := t.bias.Grad[:rows]
		for i := 0; i < r; i++ {
			floats.Add(db, grad.RawRowView(i))
		}
	}

	gradIn := mat.NewDense(r, sz, nil)
	gradIn.Mul(grad, d)
	return gradIn, nil
}

// reverseCols reverses the order of the columns of m, in place.
func reverseCols(m *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		floats.Reverse(m.RawRowView(i))
	}
}
