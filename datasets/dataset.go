// Package datasets provides small classification datasets for training and sweeping models
// without any external data: seeded Gaussian blobs, and a loader for labelled CSV files.
package datasets

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// Dataset is a set of samples, one per row, with one-hot targets.
type Dataset struct {
	Inputs  *mat.Dense
	Targets *mat.Dense
}

// Len returns the number of samples
func (d Dataset) Len() int {
	r, _ := d.Inputs.Dims()
	return r
}

// Features returns the number of input features
func (d Dataset) Features() int {
	_, c := d.Inputs.Dims()
	return c
}

// Classes returns the number of target classes
func (d Dataset) Classes() int {
	_, c := d.Targets.Dims()
	return c
}

// Supplier returns a DataSupplier that gives the samples in batches of batchSize.
func (d Dataset) Supplier(batchSize int) (nd.DataSupplier, error) {
	return nd.Data(d.Inputs, d.Targets, batchSize)
}

// Shuffle returns a copy of the Dataset with the samples in a random order.
func (d Dataset) Shuffle(rng *rand.Rand) Dataset {
	n := d.Len()
	perm := rng.Perm(n)

	out := Dataset{
		Inputs:  mat.NewDense(n, d.Features(), nil),
		Targets: mat.NewDense(n, d.Classes(), nil),
	}
	for i, j := range perm {
		out.Inputs.SetRow(i, d.Inputs.RawRowView(j))
		out.Targets.SetRow(i, d.Targets.RawRowView(j))
	}

	return out
}

// Split divides the Dataset in two, with the first 'frac' of the samples in the first. Both
// halves share memory with d.
func (d Dataset) Split(frac float64) (Dataset, Dataset, error) {
	n := d.Len()
	k := int(frac * float64(n))
	if !(frac > 0 && frac < 1) || k == 0 || k == n {
		return Dataset{}, Dataset{}, errors.Wrapf(nd.ErrInvalidConfig, "can't split %d samples at %v", n, frac)
	}

	f, c := d.Features(), d.Classes()
	a := Dataset{
		Inputs:  d.Inputs.Slice(0, k, 0, f).(*mat.Dense),
		Targets: d.Targets.Slice(0, k, 0, c).(*mat.Dense),
	}
	b := Dataset{
		Inputs:  d.Inputs.Slice(k, n, 0, f).(*mat.Dense),
		Targets: d.Targets.Slice(k, n, 0, c).(*mat.Dense),
	}
	return a, b, nil
}
