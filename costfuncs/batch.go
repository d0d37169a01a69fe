package costfuncs

import (
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// check makes sure that outs and targets are the same shape, returning the number of rows
func check(outs, targets *mat.Dense) (int, error) {
	if outs == nil {
		return 0, nd.NilArg("outs")
	} else if targets == nil {
		return 0, nd.NilArg("targets")
	}

	or, oc := outs.Dims()
	tr, tc := targets.Dims()
	if oc != tc {
		return 0, nd.SizeMismatchError{Expected: oc, Got: tc, What: "target width"}
	} else if or != tr {
		return 0, nd.SizeMismatchError{Expected: or, Got: tr, What: "target rows"}
	}

	return or, nil
}

// elementwise gives the cost as the mean over rows of the sum of f over each pair of values, and
// the derivative as df divided by the number of rows.
type elementwise struct {
	f, df func(o, t float64) float64
}

func (e elementwise) cost(outs, targets *mat.Dense) (float64, error) {
	n, err := check(outs, targets)
	if err != nil {
		return 0, err
	}

	var sum float64
	r, c := outs.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += e.f(outs.At(i, j), targets.At(i, j))
		}
	}

	return sum / float64(n), nil
}

func (e elementwise) deriv(outs, targets *mat.Dense) (*mat.Dense, error) {
	n, err := check(outs, targets)
	if err != nil {
		return nil, err
	}

	r, c := outs.Dims()
	ds := mat.NewDense(r, c, nil)
	ds.Apply(func(i, j int, o float64) float64 {
		return e.df(o, targets.At(i, j)) / float64(n)
	}, outs)

	return ds, nil
}
