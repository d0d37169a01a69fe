// Package sweep evaluates one trained model at many latent budgets, reporting accuracy against
// the number of parameters each budget uses.
package sweep

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	nd "github.com/sharnoff/nestdrop"
)

// Point is the result of evaluating a model at one budget
type Point struct {
	Budget     int
	Parameters int
	Cost       float64
	Accuracy   float64
}

// Options controls a sweep
type Options struct {
	// Budgets to evaluate at. If nil, every budget from 1 to the model's MaxBudget is used.
	Budgets []int

	// Workers is the number of budgets evaluated at once. Values below 1 mean 1.
	Workers int

	// IsCorrect decides whether a row of outputs is correct. Defaults to nestdrop.CorrectHighest.
	IsCorrect func(outs, targets []float64) bool

	// Logger receives a line per budget. It may be nil.
	Logger *slog.Logger
}

// Range returns the budgets from lo to hi inclusive, every 'step'. hi is always included.
func Range(lo, hi, step int) []int {
	if step < 1 {
		step = 1
	}

	var bs []int
	for b := lo; b < hi; b += step {
		bs = append(bs, b)
	}
	if hi >= lo {
		bs = append(bs, hi)
	}
	return bs
}

// Run evaluates m at every budget in opts.Budgets, testing on all of data each time. Budgets are
// evaluated concurrently, which relies on evaluation passes not writing any model state; data must
// also be safe for concurrent use, as the suppliers from nestdrop.Data are.
//
// The returned Points are sorted by budget.
func Run(ctx context.Context, m nd.Budgeted, data nd.DataSupplier, cf nd.CostFunction, opts Options) ([]Point, error) {
	if m == nil {
		return nil, nd.NilArg("model")
	} else if data == nil {
		return nil, nd.NilArg("data")
	} else if cf == nil {
		return nil, nd.NilArg("cost function")
	}

	budgets := opts.Budgets
	if budgets == nil {
		budgets = Range(1, m.MaxBudget(), 1)
	}
	budgets = append([]int(nil), budgets...)
	sort.Ints(budgets)

	for _, b := range budgets {
		if b < 1 {
			return nil, errors.Wrapf(nd.ErrInvalidConfig, "budgets must be positive (%d)", b)
		}
	}

	if opts.IsCorrect == nil {
		opts.IsCorrect = nd.CorrectHighest
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	points := make([]Point, len(budgets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, b := range budgets {
		g.Go(func() error {
			cost, acc, err := nd.Test(ctx, m, data, cf, opts.IsCorrect, nd.AtBudget(b))
			if err != nil {
				return errors.Wrapf(err, "Failed to test at budget %d", b)
			}

			points[i] = Point{
				Budget:     b,
				Parameters: m.InferenceParameters(b),
				Cost:       cost,
				Accuracy:   acc,
			}
			opts.Logger.Debug("swept", "budget", b, "parameters", points[i].Parameters, "cost", cost, "accuracy", acc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return points, nil
}
