package layers

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// StructuredDropout conditionally drops the last components of a vector. Instead of zeroing
// random elements, a training pass keeps a random-length prefix of the features, so the network
// learns features ordered by importance and can later be evaluated with any prefix.
type StructuredDropout struct {
	// chance of truncating on a given pass
	p float64

	// the minimum number of features to always retain
	lowerBound int

	// whether truncated features are zeroed (keeping the width) or removed
	zeroPad bool

	// the latent budget used by evaluation passes. 0 means unset.
	evalSize int

	rng *rand.Rand

	// set by training calls to Forward, cleared by Backward
	width, cutoff int
}

// NewStructuredDropout returns a StructuredDropout that truncates with probability p, always keeping
// at least lowerBound features. All random draws come from rng, so a seeded rng gives a fixed
// sequence of cutoffs.
func NewStructuredDropout(p float64, lowerBound int, zeroPad bool, rng *rand.Rand) (*StructuredDropout, error) {
	if !(p >= 0 && p <= 1) {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "dropout probability must be in [0, 1] (%v)", p)
	} else if lowerBound < 1 {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "dropout lower bound must be >= 1 (%d)", lowerBound)
	} else if rng == nil {
		return nil, nd.NilArg("rng")
	}

	return &StructuredDropout{p: p, lowerBound: lowerBound, zeroPad: zeroPad, rng: rng}, nil
}

// P returns the probability of truncating on a training pass.
func (d *StructuredDropout) P() float64 {
	return d.p
}

// LowerBound returns the minimum number of features kept by a training pass.
func (d *StructuredDropout) LowerBound() int {
	return d.lowerBound
}

// ZeroPad returns whether truncated features are zeroed instead of removed.
func (d *StructuredDropout) ZeroPad() bool {
	return d.zeroPad
}

// SetLatentBudget sets the number of leading features kept by evaluation passes that don't give
// a budget of their own. A width of 0 clears it, so evaluation passes keep everything.
func (d *StructuredDropout) SetLatentBudget(width int) error {
	if width < 0 {
		return errors.Wrapf(nd.ErrInvalidConfig, "latent budget must be non-negative (%d)", width)
	}

	d.evalSize = width
	return nil
}

// LatentBudget returns the budget set by SetLatentBudget, or 0 if there is none.
func (d *StructuredDropout) LatentBudget() int {
	return d.evalSize
}

// budget returns the evaluation width for the pass, or 0 for no truncation.
func (d *StructuredDropout) budget(pass nd.Pass) int {
	if pass.Budget != 0 {
		return pass.Budget
	}
	return d.evalSize
}

// Cutoff returns, with probability p, a number of features to keep drawn uniformly from
// [lowerBound, upper]. Otherwise it returns false, meaning no truncation. Draws one Float64 and,
// when truncating, one Intn from the rng.
//
// It fails, without drawing anything, if upper is below the lower bound.
func (d *StructuredDropout) Cutoff(upper int) (int, bool, error) {
	if upper < d.lowerBound {
		return 0, false, errors.Wrapf(nd.ErrInvalidConfig, "dropout lower bound %d is above the width %d", d.lowerBound, upper)
	} else if d.rng.Float64() >= d.p {
		return 0, false, nil
	}

	return d.lowerBound + d.rng.Intn(upper-d.lowerBound+1), true, nil
}

// Forward truncates the trailing features of x. Evaluation passes keep the first budget features
// (or everything, if there is no budget or it's wider than x) and never pad. Training passes
// truncate with probability p, and either remove the dropped features or zero them, depending on
// zeroPad.
func (d *StructuredDropout) Forward(x *mat.Dense, pass nd.Pass) (*mat.Dense, error) {
	r, width := x.Dims()

	if !pass.Training {
		b := d.budget(pass)
		if b < 0 {
			return nil, errors.Wrapf(nd.ErrInvalidConfig, "negative budget (%d)", b)
		} else if b == 0 || b >= width {
			return x, nil
		}

		return mat.DenseCopyOf(x.Slice(0, r, 0, b)), nil
	}

	cutoff, ok, err := d.Cutoff(width)
	if err != nil {
		return nil, err
	} else if !ok {
		cutoff = width
	}

	d.width, d.cutoff = width, cutoff
	return d.truncate(x, cutoff, width), nil
}

// truncate keeps the first 'cutoff' columns of x, padding back out to 'width' with zeros if
// zeroPad is set.
func (d *StructuredDropout) truncate(x *mat.Dense, cutoff, width int) *mat.Dense {
	r, _ := x.Dims()
	if cutoff == width {
		return x
	}

	if !d.zeroPad {
		return mat.DenseCopyOf(x.Slice(0, r, 0, cutoff))
	}

	out := mat.NewDense(r, width, nil)
	out.Slice(0, r, 0, cutoff).(*mat.Dense).Copy(x.Slice(0, r, 0, cutoff))
	return out
}

// Backward returns the gradient w.r.t. the input of the last training Forward: the given gradient
// for the features that were kept, and zero for the ones that were dropped.
func (d *StructuredDropout) Backward(grad *mat.Dense) (*mat.Dense, error) {
	if d.width == 0 {
		return nil, errors.Wrapf(nd.ErrNoCache, "structured dropout")
	}

	width, cutoff := d.width, d.cutoff
	d.width, d.cutoff = 0, 0

	r, c := grad.Dims()
	if (d.zeroPad && c != width) || (!d.zeroPad && c != cutoff) {
		return nil, nd.SizeMismatchError{Expected: cutoff, Got: c, What: "structured dropout gradient"}
	} else if c == width && cutoff == width {
		return grad, nil
	}

	out := mat.NewDense(r, width, nil)
	out.Slice(0, r, 0, cutoff).(*mat.Dense).Copy(grad.Slice(0, r, 0, cutoff))
	return out, nil
}

// Rescale returns the factor applied to the outputs of a linear layer truncated to 'cutoff' of
// its 'outputFeatures' outputs. It compensates for the reduced width so that activation
// magnitudes stay comparable across budgets; it is a heuristic, not an exact variance correction.
func Rescale(outputFeatures, cutoff int) float64 {
	return float64(outputFeatures) / float64(cutoff)
}

// PreApplyLinear applies the linear layer that precedes this dropout, computing only the outputs
// that the dropout would keep. On training passes the cutoff comes from Cutoff; on evaluation
// passes it is the budget. When there is a cutoff narrower than outputFeatures, only the first
// 'cutoff' rows of the weight and bias are used, and the result is multiplied by
// Rescale(outputFeatures, cutoff).
//
// It returns the cutoff that was applied, or 0 if the layer was applied in full. Callers need it
// (with Rescale) to run the backward pass through the linear layer.
func (d *StructuredDropout) PreApplyLinear(lin *Linear, x *mat.Dense, outputFeatures int, pass nd.Pass) (*mat.Dense, int, error) {
	if outputFeatures < 1 || outputFeatures > lin.Out() {
		return nil, 0, errors.Wrapf(nd.ErrInvalidConfig, "can't pre-apply %d outputs of a linear layer with %d", outputFeatures, lin.Out())
	}

	var cutoff int
	if pass.Training {
		c, ok, err := d.Cutoff(outputFeatures)
		if err != nil {
			return nil, 0, err
		} else if ok {
			cutoff = c
		}
	} else {
		cutoff = d.budget(pass)
		if cutoff < 0 {
			return nil, 0, errors.Wrapf(nd.ErrInvalidConfig, "negative budget (%d)", cutoff)
		}
	}

	if cutoff == 0 || cutoff >= outputFeatures {
		out, err := lin.ForwardRows(x, outputFeatures, pass)
		return out, 0, err
	}

	out, err := lin.ForwardRows(x, cutoff, pass)
	if err != nil {
		return nil, 0, err
	}

	out.Scale(Rescale(outputFeatures, cutoff), out)
	return out, cutoff, nil
}
