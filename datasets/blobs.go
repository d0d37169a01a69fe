package datasets

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// BlobsConfig describes a Gaussian blobs dataset
type BlobsConfig struct {
	Samples  int
	Classes  int
	Features int

	// Spread is the standard deviation of each blob. The centers are drawn uniformly from
	// [-1, 1] in every feature.
	Spread float64
}

// Blobs returns a dataset of cfg.Samples points, spread evenly over cfg.Classes Gaussian blobs
// with random centers. Every random draw comes from rng, so a seeded rng gives the same dataset.
func Blobs(cfg BlobsConfig, rng *rand.Rand) (Dataset, error) {
	if cfg.Samples < 1 || cfg.Classes < 1 || cfg.Features < 1 {
		return Dataset{}, errors.Wrapf(nd.ErrInvalidConfig, "blobs must have positive sizes (%+v)", cfg)
	} else if cfg.Spread < 0 {
		return Dataset{}, errors.Wrapf(nd.ErrInvalidConfig, "blob spread must be non-negative (%v)", cfg.Spread)
	} else if rng == nil {
		return Dataset{}, nd.NilArg("rng")
	}

	centers := mat.NewDense(cfg.Classes, cfg.Features, nil)
	for i := 0; i < cfg.Classes; i++ {
		for j := 0; j < cfg.Features; j++ {
			centers.Set(i, j, 2*rng.Float64()-1)
		}
	}

	d := Dataset{
		Inputs:  mat.NewDense(cfg.Samples, cfg.Features, nil),
		Targets: mat.NewDense(cfg.Samples, cfg.Classes, nil),
	}

	for i := 0; i < cfg.Samples; i++ {
		class := i % cfg.Classes
		row := d.Inputs.RawRowView(i)
		for j := range row {
			row[j] = centers.At(class, j) + cfg.Spread*rng.NormFloat64()
		}
		d.Targets.Set(i, class, 1)
	}

	return d.Shuffle(rng), nil
}
