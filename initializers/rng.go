package initializers

import "math/rand"

// RNG is a distribution to draw single values from
type RNG interface {
	Gen(rng *rand.Rand) float64
}

type uniform struct {
	lower, upper float64
}

// Uniform returns RNG that gives values uniformly spread between its bounds, which
// can be set by Bounds. The defaults ("uniform-lower" and "uniform-upper") can be set by
// SetDefault
func Uniform() *uniform {
	return &uniform{defaultValue["uniform-lower"], defaultValue["uniform-upper"]}
}

// Bounds sets the range of a Uniform RNG, returning it.
func (u *uniform) Bounds(lower, upper float64) *uniform {
	if lower > upper {
		lower, upper = upper, lower
	}

	u.lower = lower
	u.upper = upper
	return u
}

// Gen is the implementation of RNG for Uniform.
func (u *uniform) Gen(rng *rand.Rand) float64 {
	return rng.Float64()*(u.upper-u.lower) + u.lower
}

type normal struct {
	µ, σ float64
}

// Normal returns an RNG that gives values within a normal distribution. The center
// and standard deviation can be set by Mean and SD, respectively.
//
// Default centers and standard deviations can be set by SetDefault for
// "normal-mean" and "normal-sd".
func Normal() *normal {
	return &normal{defaultValue["normal-mean"], defaultValue["normal-sd"]}
}

// SD sets the value of the standard deviation of the normal distribution.
func (n *normal) SD(sd float64) *normal {
	n.σ = sd
	return n
}

// Mean sets the center of the normal distribution.
func (n *normal) Mean(mean float64) *normal {
	n.µ = mean
	return n
}

// Gen is the implementation of RNG for Normal.
func (n *normal) Gen(rng *rand.Rand) float64 {
	return rng.NormFloat64()*n.σ + n.µ
}

type truncNormal struct {
	*normal
	trunc float64
}

// TruncNormal returns an RNG that gives values within an truncated normal
// distribution. By default, the distribution is truncated at 2 standard deviations
// ("normal-trunc"). The center and standard deviation are set by Mean and SD, as with
// Normal.
//
// Additionally, the number of standard deviations to truncate at can be set by
// Trunc.
func TruncNormal() *truncNormal {
	return &truncNormal{Normal(), defaultValue["normal-trunc"]}
}

// SD sets the standard deviation of the distribution before truncation.
func (t *truncNormal) SD(sd float64) *truncNormal {
	t.normal.SD(sd)
	return t
}

// Mean sets the center of the distribution.
func (t *truncNormal) Mean(mean float64) *truncNormal {
	t.normal.Mean(mean)
	return t
}

// Trunc sets the number of standard deviations to keep on either side. Trunc will
// panic if given sds <= 0.
func (t *truncNormal) Trunc(sds float64) *truncNormal {
	if sds <= 0 {
		panic("given number of standard deviations to truncate after is <= 0")
	}

	t.trunc = sds
	return t
}

// Gen is the implementation of RNG for TruncNormal.
func (t *truncNormal) Gen(rng *rand.Rand) float64 {
	for {
		v := rng.NormFloat64()
		if v < -t.trunc || v > t.trunc {
			continue
		}

		return v*t.σ + t.µ
	}
}
