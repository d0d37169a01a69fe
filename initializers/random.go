package initializers

import (
	"math/rand"

	nd "github.com/sharnoff/nestdrop"
)

type random struct {
	RNG
}

// Random returns an Initializer that uses the provided RNG to generate the values. There is no
// scaling beyond that of the RNG.
func Random(g RNG) random {
	return random{g}
}

// Set is the implementation of nestdrop.Initializer
func (r random) Set(p *nd.Param, rng *rand.Rand) {
	for i := range p.Value {
		p.Value[i] = r.Gen(rng)
	}
}

type constant float64

// Constant returns an Initializer that sets every value to v.
func Constant(v float64) constant {
	return constant(v)
}

// Zero is Constant(0).
func Zero() constant {
	return Constant(0)
}

// Set is the implementation of nestdrop.Initializer
func (c constant) Set(p *nd.Param, rng *rand.Rand) {
	for i := range p.Value {
		p.Value[i] = float64(c)
	}
}
