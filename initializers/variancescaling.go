package initializers

import (
	"math"
	"math/rand"

	nd "github.com/sharnoff/nestdrop"
)

type varianceScaling struct {
	// either: "in", "out", "avg"
	mode string

	// either: "trunc", "normal", "uniform"
	dist   string
	factor float64

	// whether biases are zeroed instead of drawn
	zeroBias bool
}

const (
	defaultVarianceMode string = "avg"
	defaultVarianceDist string = "trunc"
)

// VarianceScaling returns the variance scaling initializer, which has 3 modes and a user-defined
// scaling factor. The three modes can be set by In, Out, and Avg. It defaults to Avg, drawing from
// a truncated normal distribution.
func VarianceScaling() *varianceScaling {
	return &varianceScaling{
		mode:   defaultVarianceMode,
		dist:   defaultVarianceDist,
		factor: defaultValue["varscl-factor"],
	}
}

// Factor sets the scaling factor to be used for the Initializer. The default factor can be set by
// SetDefault("varscl-factor")
func (v *varianceScaling) Factor(f float64) *varianceScaling {
	v.factor = f
	return v
}

// In sets the scaling to be based on the number of inputs to the layer.
func (v *varianceScaling) In() *varianceScaling {
	v.mode = "in"
	return v
}

// Out sets the scaling to be based on the number of outputs of the layer.
func (v *varianceScaling) Out() *varianceScaling {
	v.mode = "out"
	return v
}

// Avg sets the scaling to be based on the average of the numbers of inputs and outputs of the
// layer.
func (v *varianceScaling) Avg() *varianceScaling {
	v.mode = "avg"
	return v
}

// Normal draws from an untruncated normal distribution with variance factor/scale.
func (v *varianceScaling) Normal() *varianceScaling {
	v.dist = "normal"
	return v
}

// Uniform draws from a uniform distribution with variance factor/scale, i.e. with bounds
// ±sqrt(3 * factor/scale).
func (v *varianceScaling) Uniform() *varianceScaling {
	v.dist = "uniform"
	return v
}

// ZeroBias makes the initializer set biases to zero.
func (v *varianceScaling) ZeroBias() *varianceScaling {
	v.zeroBias = true
	return v
}

func (v *varianceScaling) gen(scale float64) RNG {
	variance := v.factor / scale
	switch v.dist {
	case "normal":
		return Normal().SD(math.Sqrt(variance))
	case "uniform":
		limit := math.Sqrt(3 * variance)
		return Uniform().Bounds(-limit, limit)
	default: // must be "trunc"
		return TruncNormal().SD(math.Sqrt(variance))
	}
}

// Set is the implementation of nestdrop.Initializer
func (v *varianceScaling) Set(p *nd.Param, rng *rand.Rand) {
	if p.Bias && v.zeroBias {
		Zero().Set(p, rng)
		return
	}

	var scale float64
	if v.mode == "in" {
		scale = float64(p.FanIn)
	} else if v.mode == "out" {
		scale = float64(p.FanOut)
	} else { // must be "avg"
		scale = float64(p.FanIn+p.FanOut) / 2
	}

	gen := v.gen(scale)
	for i := range p.Value {
		p.Value[i] = gen.Gen(rng)
	}
}
