// Package models provides the budget-aware MLPs: TriangleMLP, whose hidden layers are
// triangular, and MLP, whose hidden layers are dense. Both are trained at random widths by a
// structured dropout after their first layer, and can then be evaluated at any budget up to the
// first hidden size.
package models

import (
	"math/rand"

	"github.com/pkg/errors"

	nd "github.com/sharnoff/nestdrop"
)

// Model is what both kinds of model provide.
type Model interface {
	nd.Budgeted

	// TypeString returns the name that New takes to build this kind of model.
	TypeString() string

	Config() Config
	LatentBudget() int
	NumberInferenceParameters() int
	Apply(values []float64, shape []int, pass nd.Pass) ([]float64, []int, error)
}

const (
	TriangleKind = "triangle"
	MLPKind      = "mlp"
)

// New builds the kind of model named by 'kind', either TriangleKind or MLPKind.
func New(kind string, cfg Config, rng *rand.Rand) (Model, error) {
	switch kind {
	case TriangleKind:
		return NewTriangleMLP(cfg, rng)
	case MLPKind:
		return NewMLP(cfg, rng)
	}

	return nil, errors.Wrapf(nd.ErrUnknownKind, "model %q", kind)
}

func (m *TriangleMLP) TypeString() string {
	return TriangleKind
}

func (m *MLP) TypeString() string {
	return MLPKind
}
