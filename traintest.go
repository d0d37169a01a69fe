package nestdrop

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Batch is a simple wrapper used to send training samples to a Model, one sample per row.
type Batch struct {
	// Inputs is the input of the model. It must have as many columns as the model has inputs.
	Inputs *mat.Dense

	// Targets is the expected output of the model, given the inputs. It must have as many rows as
	// Inputs.
	Targets *mat.Dense
}

// Size returns the number of samples in the Batch
func (b Batch) Size() int {
	r, _ := b.Inputs.Dims()
	return r
}

func (b Batch) check() error {
	if b.Inputs == nil {
		return NilArg("batch inputs")
	} else if b.Targets == nil {
		return NilArg("batch targets")
	}

	ir, _ := b.Inputs.Dims()
	if tr, _ := b.Targets.Dims(); tr != ir {
		return SizeMismatchError{Expected: ir, Got: tr, What: "batch targets"}
	}
	return nil
}

// DataSupplier is the primary method of providing datasets to a Model, either for training or
// testing.
type DataSupplier interface {
	// Get returns the batch for the given iteration. When testing, the iteration counts batches
	// from zero.
	Get(int) (Batch, error)

	// DoneTesting indicates whether or not the testing process has finished, given the number of
	// batches tested so far. This will only be called if the DataSupplier is actually used for
	// providing testing data.
	DoneTesting(int) bool
}

// A wrapper for sending back the progress of the training or testing
type Result struct {
	// The iteration the result is being sent before
	Iteration int

	// Average cost per sample, from the CostFunction
	Cost float64

	// The fraction correct, as per IsCorrect from TrainArgs
	// 0 → 1
	Correct float64

	// The result is either from a test or a status update
	IsTest bool
}

type TrainArgs struct {
	TrainData DataSupplier

	// TestData is the source of cross-validation data while training. This can be
	// nil if ShouldTest is also nil
	TestData DataSupplier

	// ShouldTest indicates whether or not testing should be done before the current
	// iteration.
	ShouldTest func(int) bool

	// TestPass is the pass used for testing. It is always treated as an evaluation pass, and
	// can be used to test at a fixed budget.
	TestPass Pass

	// SendStatus indicates whether or not to send back general information about
	// the status of the training since the last time 'true' was returned.
	// SendStatus can be left nil to represent an unconditional false.
	//
	// 'true' will be ignored on iteration 0.
	SendStatus func(int) bool

	// RunCondition will be called at each successive iteration to determine if
	// training should continue. Training will stop if 'false' is returned.
	RunCondition func(int) bool

	// IsCorrect returns whether or not a row of outputs is correct, given the row of
	// target outputs. If nil, nothing is ever correct.
	IsCorrect func(outs, targets []float64) bool

	CostFunction CostFunction
	Optimizer    Optimizer

	// LearningRate gives the learning rate for each iteration
	LearningRate HyperParameter

	// Penalty is applied to every Param before each step. It may be nil.
	Penalty Penalty

	// Update is how testing and status updates are returned. It may be nil.
	Update func(Result)

	// Logger receives a line for every Result. It may be nil.
	Logger *slog.Logger
}

// Train trains the model until args.RunCondition returns false or ctx is done, returning the
// number of iterations that were run. Each iteration is one batch: a training forward pass, the
// backward pass, and an optimizer step for every Param.
func Train(ctx context.Context, m Model, args TrainArgs) (int, error) {
	// handle error cases and set defaults
	{
		if m == nil {
			return 0, NilArg("model")
		} else if args.TrainData == nil {
			return 0, errors.Errorf("TrainData is nil")
		} else if args.RunCondition == nil {
			return 0, errors.Errorf("RunCondition is nil")
		} else if args.CostFunction == nil {
			return 0, errors.Errorf("CostFunction is nil")
		} else if args.Optimizer == nil {
			return 0, errors.Errorf("Optimizer is nil")
		} else if args.LearningRate == nil {
			return 0, errors.Errorf("LearningRate is nil")
		}

		if args.TestData == nil {
			if args.ShouldTest != nil {
				return 0, errors.Errorf("TestData is nil but ShouldTest is not")
			}
			args.ShouldTest = func(i int) bool { return false }
		} else if args.ShouldTest == nil {
			args.ShouldTest = func(i int) bool { return false }
		}

		if args.SendStatus == nil {
			args.SendStatus = func(i int) bool { return false }
		}

		if args.IsCorrect == nil {
			args.IsCorrect = func(a, b []float64) bool { return false }
		}

		if args.Logger == nil {
			args.Logger = slog.New(slog.DiscardHandler)
		}

		update := args.Update
		args.Update = func(r Result) {
			args.Logger.Info("training", "iteration", r.Iteration, "test", r.IsTest, "cost", r.Cost, "correct", r.Correct)
			if update != nil {
				update(r)
			}
		}
	}

	var statusCost float64
	var statusCorrect, statusSize int

	params := m.Params()

	iter := 0
	for ; ; iter++ {
		if err := ctx.Err(); err != nil {
			return iter, errors.Wrapf(err, "Training stopped on iteration %d", iter)
		}

		if args.SendStatus(iter) && iter != 0 && statusSize != 0 {
			args.Update(Result{
				Iteration: iter,
				Cost:      statusCost / float64(statusSize),
				Correct:   float64(statusCorrect) / float64(statusSize),
			})

			statusCost, statusCorrect = 0, 0
			statusSize = 0
		}

		if args.ShouldTest(iter) {
			cost, correct, err := Test(ctx, m, args.TestData, args.CostFunction, args.IsCorrect, args.TestPass)
			if err != nil {
				return iter, errors.Wrapf(err, "Testing on iteration %d failed", iter)
			}

			args.Update(Result{Iteration: iter, Cost: cost, Correct: correct, IsTest: true})
		}

		if !args.RunCondition(iter) {
			break
		}

		b, err := args.TrainData.Get(iter)
		if err != nil {
			return iter, errors.Wrapf(err, "Failed to get training data on iteration %d", iter)
		} else if err = b.check(); err != nil {
			return iter, errors.Wrapf(err, "Training data for iteration %d is invalid", iter)
		}

		ZeroGrads(params)

		outs, err := m.Forward(b.Inputs, TrainPass)
		if err != nil {
			return iter, errors.Wrapf(err, "Failed to get model outputs on iteration %d", iter)
		}

		cost, err := args.CostFunction.Cost(outs, b.Targets)
		if err != nil {
			return iter, errors.Wrapf(err, "Failed to get cost on iteration %d", iter)
		}

		deriv, err := args.CostFunction.Deriv(outs, b.Targets)
		if err != nil {
			return iter, errors.Wrapf(err, "Failed to get cost derivative on iteration %d", iter)
		}

		if err = m.Backward(deriv); err != nil {
			return iter, errors.Wrapf(err, "Failed to get gradients on iteration %d", iter)
		}

		lr := args.LearningRate.Value(iter)
		for _, p := range params {
			if args.Penalty != nil {
				args.Penalty.Penalize(p)
			}

			if err = args.Optimizer.Run(p, lr); err != nil {
				return iter, errors.Wrapf(err, "Failed to adjust %s on iteration %d", p.Name, iter)
			}
		}

		n := b.Size()
		statusCost += cost * float64(n)
		statusCorrect += CountCorrect(outs, b.Targets, args.IsCorrect)
		statusSize += n
	}

	return iter, nil
}

// Test evaluates the model on every batch of data, returning the average cost per sample and the
// fraction of samples that were correct. pass is always run as an evaluation pass.
func Test(ctx context.Context, m Model, data DataSupplier, cf CostFunction, isCorrect func(outs, targets []float64) bool, pass Pass) (float64, float64, error) {
	if m == nil {
		return 0, 0, NilArg("model")
	} else if data == nil {
		return 0, 0, NilArg("data")
	} else if cf == nil {
		return 0, 0, NilArg("cost function")
	}

	if isCorrect == nil {
		isCorrect = func(a, b []float64) bool { return false }
	}
	pass.Training = false

	var avgCost float64
	var correct, testSize int

	for i := 0; !data.DoneTesting(i); i++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		b, err := data.Get(i)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get test batch %d", i)
		} else if err = b.check(); err != nil {
			return 0, 0, errors.Wrapf(err, "Test batch %d is invalid", i)
		}

		outs, err := m.Forward(b.Inputs, pass)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get model outputs with test batch %d", i)
		}

		cost, err := cf.Cost(outs, b.Targets)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get cost of test batch %d", i)
		}

		n := b.Size()
		avgCost += cost * float64(n)
		correct += CountCorrect(outs, b.Targets, isCorrect)
		testSize += n
	}

	if testSize == 0 {
		return 0, 0, nil
	}

	return avgCost / float64(testSize), float64(correct) / float64(testSize), nil
}

type internalSupplier struct {
	get         func(int) (Batch, error)
	doneTesting func(int) bool
}

func (s internalSupplier) Get(iter int) (Batch, error) {
	return s.get(iter)
}

func (s internalSupplier) DoneTesting(iter int) bool {
	return s.doneTesting(iter)
}

// Data converts a dataset, one sample per row, to a DataSupplier, which can be used for training
// or testing. Training cycles through the batches forever; testing goes through each batch once.
// The last batch is smaller if batchSize doesn't divide the number of samples.
//
// N.B.: Data does not check if the data fit a certain model; that will be done during
// training/testing
func Data(inputs, targets *mat.Dense, batchSize int) (DataSupplier, error) {
	if inputs == nil || targets == nil {
		return nil, NilArg("dataset")
	} else if batchSize < 1 {
		return nil, errors.Errorf("batch size must be >= 1 (%d)", batchSize)
	}

	n, inCols := inputs.Dims()
	tn, tCols := targets.Dims()
	if n == 0 {
		return nil, errors.Errorf("dataset has no data (len == 0)")
	} else if tn != n {
		return nil, SizeMismatchError{Expected: n, Got: tn, What: "dataset targets"}
	}

	numBatches := (n + batchSize - 1) / batchSize

	is := internalSupplier{
		get: func(iter int) (Batch, error) {
			start := (iter % numBatches) * batchSize
			end := min(start+batchSize, n)
			return Batch{
				Inputs:  inputs.Slice(start, end, 0, inCols).(*mat.Dense),
				Targets: targets.Slice(start, end, 0, tCols).(*mat.Dense),
			}, nil
		},
		doneTesting: EndEvery(numBatches),
	}

	return is, nil
}
