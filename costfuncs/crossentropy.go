package costfuncs

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type crossEntropy struct{}

// CrossEntropy returns the softmax cross entropy cost function. The outputs it's given are
// unnormalized logits; each row is passed through a softmax before being compared against its
// targets, which should be a probability distribution (usually one-hot).
func CrossEntropy() *crossEntropy {
	return &crossEntropy{}
}

// NegativeLog is a proxy for CrossEntropy
func NegativeLog() *crossEntropy {
	return CrossEntropy()
}

func (c *crossEntropy) TypeString() string {
	return "cross-entropy"
}

// logSoftmax writes the log of the softmax of row into dst
func logSoftmax(dst, row []float64) {
	lse := floats.LogSumExp(row)
	for i, v := range row {
		dst[i] = v - lse
	}
}

func (c *crossEntropy) Cost(outs, targets *mat.Dense) (float64, error) {
	n, err := check(outs, targets)
	if err != nil {
		return 0, err
	}

	_, cols := outs.Dims()
	row := make([]float64, cols)
	ls := make([]float64, cols)

	var sum float64
	for i := 0; i < n; i++ {
		mat.Row(row, i, outs)
		logSoftmax(ls, row)
		for j := range ls {
			if t := targets.At(i, j); t != 0 {
				sum -= t * ls[j]
			}
		}
	}

	return sum / float64(n), nil
}

func (c *crossEntropy) Deriv(outs, targets *mat.Dense) (*mat.Dense, error) {
	n, err := check(outs, targets)
	if err != nil {
		return nil, err
	}

	_, cols := outs.Dims()
	row := make([]float64, cols)
	ls := make([]float64, cols)

	ds := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		mat.Row(row, i, outs)
		logSoftmax(ls, row)

		// assumes that each row of targets sums to 1
		d := ds.RawRowView(i)
		for j := range d {
			d[j] = (math.Exp(ls[j]) - targets.At(i, j)) / float64(n)
		}
	}

	return ds, nil
}

// Softmax returns the softmax of each row of outs
func Softmax(outs mat.Matrix) *mat.Dense {
	r, c := outs.Dims()
	row := make([]float64, c)
	sm := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		mat.Row(row, i, outs)
		d := sm.RawRowView(i)
		logSoftmax(d, row)
		for j := range d {
			d[j] = math.Exp(d[j])
		}
	}

	return sm
}
