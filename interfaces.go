package nestdrop

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Model is anything that can be trained by Train: a forward pass over a batch, the matching
// backward pass, and the set of learnable parameters that the backward pass fills gradients for.
type Model interface {
	// Forward computes the outputs for a batch of inputs, one sample per row. Training passes
	// record whatever the following call to Backward needs; evaluation passes must not write any
	// state, so that a model can be evaluated concurrently at several budgets.
	Forward(x *mat.Dense, pass Pass) (*mat.Dense, error)

	// Backward takes the derivative of the cost w.r.t. the outputs of the most recent training
	// Forward and accumulates the gradients of every parameter that was used. It returns
	// ErrNoCache if there was no such Forward.
	Backward(grad *mat.Dense) error

	// Params returns the learnable parameters. The slice is stable for the lifetime of the Model.
	Params() []*Param
}

// Budgeted is a Model whose hidden width can be truncated at evaluation time without retraining.
type Budgeted interface {
	Model

	// SetLatentBudget sets the number of leading hidden features kept by evaluation passes that
	// don't give their own budget. Zero clears it.
	SetLatentBudget(width int) error

	// InferenceParameters returns the number of weight and bias scalars that a forward pass at the
	// given budget actually uses. A budget of zero means the full width.
	InferenceParameters(budget int) int

	// MaxBudget returns the widest budget that still changes the computation.
	MaxBudget() int
}

// Optimizer applies the accumulated gradient of a Param to its values.
type Optimizer interface {
	// TypeString returns the string corresponding to the type of the Optimizer.
	// For example: the Optimizer "Adam" should return "adam", or something
	// to that effect.
	TypeString() string

	// Run updates the values of the Param from its gradient, given the learning rate for the
	// current iteration. Run does not reset the gradient.
	Run(p *Param, learningRate float64) error
}

// CostFunction measures how far a batch of outputs is from its targets.
type CostFunction interface {
	TypeString() string

	// Cost returns the cost averaged over the rows of the batch. outs and targets have the same
	// dimensions.
	Cost(outs, targets *mat.Dense) (float64, error)

	// Deriv returns the derivative of Cost w.r.t. each output value, with the same dimensions as
	// outs.
	Deriv(outs, targets *mat.Dense) (*mat.Dense, error)
}

// HyperParameter gives the value of a scalar setting (usually the learning rate) at a given
// iteration.
type HyperParameter interface {
	TypeString() string
	Value(iter int) float64
}

// Penalty adds a regularization term to the gradient of a Param before the Optimizer runs.
type Penalty interface {
	TypeString() string
	Penalize(p *Param)
}

// Initializer dictates how the values of a Param will be set. rng is the only source of
// randomness an Initializer may use.
type Initializer interface {
	Set(p *Param, rng *rand.Rand)
}
