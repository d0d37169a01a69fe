package nestdrop

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	optimizers  = make(map[string]func() Optimizer)
	costFuncs   = make(map[string]func() CostFunction)
	hyperParams = make(map[string]func() HyperParameter)
	penalties   = make(map[string]func() Penalty)
)

func register[T any](m map[string]func() T, what, name string, f func() T) error {
	if f == nil {
		return NilArg("constructor")
	} else if _, ok := m[name]; ok {
		return errors.Errorf("Can't register %s %q, name is already registered", what, name)
	}

	m[name] = f
	return nil
}

func lookup[T any](m map[string]func() T, what, name string) (T, error) {
	f, ok := m[name]
	if !ok {
		var zero T
		return zero, errors.Wrapf(ErrUnknownKind, "%s %q", what, name)
	}
	return f(), nil
}

func names[T any](m map[string]func() T) []string {
	ns := make([]string, 0, len(m))
	for n := range m {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// RegisterOptimizer makes an Optimizer available by name through NewOptimizer. It is meant to be
// called from the init() of the package providing the Optimizer.
func RegisterOptimizer(name string, f func() Optimizer) error {
	return register(optimizers, "optimizer", name, f)
}

// NewOptimizer returns a fresh Optimizer of the type registered under name.
func NewOptimizer(name string) (Optimizer, error) {
	return lookup(optimizers, "optimizer", name)
}

// Optimizers lists the names of the registered Optimizers, sorted.
func Optimizers() []string {
	return names(optimizers)
}

// RegisterCostFunction makes a CostFunction available by name through NewCostFunction.
func RegisterCostFunction(name string, f func() CostFunction) error {
	return register(costFuncs, "cost function", name, f)
}

// NewCostFunction returns the CostFunction registered under name.
func NewCostFunction(name string) (CostFunction, error) {
	return lookup(costFuncs, "cost function", name)
}

// CostFunctions lists the names of the registered CostFunctions, sorted.
func CostFunctions() []string {
	return names(costFuncs)
}

// RegisterHyperParameter makes a HyperParameter available by name. The constructor gives the
// HyperParameter with its default values.
func RegisterHyperParameter(name string, f func() HyperParameter) error {
	return register(hyperParams, "hyperparameter", name, f)
}

// NewHyperParameter returns the HyperParameter registered under name.
func NewHyperParameter(name string) (HyperParameter, error) {
	return lookup(hyperParams, "hyperparameter", name)
}

// RegisterPenalty makes a Penalty available by name.
func RegisterPenalty(name string, f func() Penalty) error {
	return register(penalties, "penalty", name, f)
}

// NewPenalty returns the Penalty registered under name.
func NewPenalty(name string) (Penalty, error) {
	return lookup(penalties, "penalty", name)
}
