// activations.go contains the element-wise activation functions that can sit between layers:
// * ReLU
// * Leaky ReLU
// * ELU
// * Tanh
// * Identity
package layers

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// Activation is an element-wise function applied to hidden features. Deriv is given the input to
// the function, not its output.
type Activation interface {
	TypeString() string
	Value(in float64) float64
	Deriv(in float64) float64
}

// DefaultLeakySlope matches the usual default negative slope of a leaky ReLU.
const DefaultLeakySlope float64 = 0.01

// ParseActivation returns the Activation with the given TypeString. An empty name gives a leaky
// ReLU with DefaultLeakySlope.
func ParseActivation(name string) (Activation, error) {
	switch name {
	case "", "leaky-relu":
		return LeakyReLU(DefaultLeakySlope), nil
	case "relu":
		return ReLU(), nil
	case "elu":
		return ELU(), nil
	case "tanh":
		return Tanh(), nil
	case "identity":
		return Identity(), nil
	}

	return nil, errors.Wrapf(nd.ErrUnknownKind, "activation %q", name)
}

// Activate applies a to every element of x, returning a new matrix.
func Activate(a Activation, x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return a.Value(v)
	}, x)
	return out
}

// ActivateDeriv returns grad multiplied element-wise by the derivative of a at pre, the inputs
// that were given to Activate.
func ActivateDeriv(a Activation, pre, grad mat.Matrix) *mat.Dense {
	r, c := grad.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, g float64) float64 {
		return g * a.Deriv(pre.At(i, j))
	}, grad)
	return out
}

// ****************************************
// ReLU
// ****************************************

type relu int8

// ReLU returns the standard rectified linear unit
func ReLU() relu {
	return relu(0)
}

func (t relu) TypeString() string {
	return "relu"
}

func (t relu) Value(in float64) float64 {
	return math.Max(in, 0)
}

func (t relu) Deriv(in float64) float64 {
	if in > 0 {
		return 1
	}
	return 0
}

// ****************************************
// Leaky ReLU
// ****************************************

type lrelu float64

// LeakyReLU returns a standard 'leaky ReLU', where the leaky factor is given by alpha.
func LeakyReLU(alpha float64) lrelu {
	return lrelu(alpha)
}

func (t lrelu) TypeString() string {
	return "leaky-relu"
}

func (t lrelu) Value(in float64) float64 {
	if in < 0 {
		return float64(t) * in
	}
	return in
}

func (t lrelu) Deriv(in float64) float64 {
	if in < 0 {
		return float64(t)
	}
	return 1
}

// ****************************************
// ELU
// ****************************************

type elu int8

// ELU (exponential linear unit) returns a smooth approximation of ReLU that tends towards -1 as
// inputs become infinitely negative.
func ELU() elu {
	return elu(0)
}

func (t elu) TypeString() string {
	return "elu"
}

func (t elu) Value(in float64) float64 {
	if in >= 0 {
		return in
	}
	return math.Exp(in) - 1
}

func (t elu) Deriv(in float64) float64 {
	if in < 0 {
		return math.Exp(in)
	}
	return 1
}

// ****************************************
// Tanh
// ****************************************

type tanh int8

// Tanh returns the element-wise hyperbolic tangent.
func Tanh() tanh {
	return tanh(0)
}

func (t tanh) TypeString() string {
	return "tanh"
}

func (t tanh) Value(in float64) float64 {
	return math.Tanh(in)
}

// the derivative of tanh(x) is 1 - tanh(x)^2
func (t tanh) Deriv(in float64) float64 {
	v := math.Tanh(in)
	return 1 - v*v
}

// ****************************************
// Identity
// ****************************************

type identity int8

// Identity returns an activation that returns its inputs
func Identity() identity {
	return identity(0)
}

func (t identity) TypeString() string {
	return "identity"
}

func (t identity) Value(in float64) float64 {
	return in
}

func (t identity) Deriv(in float64) float64 {
	return 1
}
