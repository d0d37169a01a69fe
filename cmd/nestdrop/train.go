package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	nd "github.com/sharnoff/nestdrop"
	_ "github.com/sharnoff/nestdrop/costfuncs"
	"github.com/sharnoff/nestdrop/hyperparams"
	"github.com/sharnoff/nestdrop/initializers"
	"github.com/sharnoff/nestdrop/logutil"
	"github.com/sharnoff/nestdrop/models"
	_ "github.com/sharnoff/nestdrop/optimizers"
	_ "github.com/sharnoff/nestdrop/penalties"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model and save it",
		Args:  cobra.NoArgs,
		RunE:  trainHandler,
	}

	f := cmd.Flags()
	f.StringP("output", "o", "model.json", "File to save the trained model to")
	f.Bool("overwrite", false, "Overwrite the output file if it exists")

	f.String("kind", models.TriangleKind, "Kind of model: "+models.TriangleKind+" or "+models.MLPKind)
	f.IntSlice("hidden", []int{64, 64, 64}, "Hidden layer sizes")
	f.Bool("bias", true, "Give every layer a bias")
	f.Int("backflow", 0, "Extra outputs each input of a triangular layer reaches")
	f.Bool("flip", true, "Reverse the outputs of every other triangular layer")
	f.Int("skip", 3, "Reserved; has no effect")
	f.String("init", initializers.KindDefault.String(), "Initialization: default, zero, siren, kaiming, lecun, he or xavier")
	f.String("activation", "leaky-relu", "Activation: leaky-relu, relu, elu, tanh or identity")
	f.Float64("p", 0.5, "Chance that the dropout truncates a training pass")
	f.Int("lower-bound", 1, "Fewest features the dropout keeps")
	f.Bool("zero-pad", false, "Zero dropped features instead of removing them")

	f.Int("iterations", 2000, "Number of batches to train for")
	f.Int("batch", 32, "Batch size")
	f.Float64("lr", 1e-3, "Learning rate")
	f.String("schedule", "cosine", "Learning rate schedule: constant, step or cosine")
	f.String("optimizer", "adam", "Optimizer: "+strings.Join(nd.Optimizers(), ", "))
	f.String("cost", "cross-entropy", "Cost function: "+strings.Join(nd.CostFunctions(), ", "))
	f.String("penalty", "", "Weight penalty: l1-lasso, l2-ridge or elastic-net")
	f.Int("status-every", 100, "Iterations between status lines")
	f.Int("test-every", 500, "Iterations between tests")

	return cmd
}

func configFromFlags(cmd *cobra.Command, in, out int) (models.Config, error) {
	f := cmd.Flags()
	cfg := models.DefaultConfig(in, out)

	cfg.HiddenSizes, _ = f.GetIntSlice("hidden")
	cfg.Bias, _ = f.GetBool("bias")
	cfg.Backflow, _ = f.GetInt("backflow")
	cfg.Flip, _ = f.GetBool("flip")
	cfg.Skip, _ = f.GetInt("skip")
	cfg.Activation, _ = f.GetString("activation")
	cfg.Dropout.P, _ = f.GetFloat64("p")
	cfg.Dropout.LowerBound, _ = f.GetInt("lower-bound")
	cfg.Dropout.ZeroPad, _ = f.GetBool("zero-pad")

	kind, _ := f.GetString("init")
	var err error
	if cfg.Init, err = initializers.ParseKind(kind); err != nil {
		return models.Config{}, err
	}

	return cfg, cfg.Validate()
}

func schedule(name string, lr float64, iterations int) (nd.HyperParameter, error) {
	switch name {
	case "constant":
		return hyperparams.Constant(lr), nil
	case "step":
		return hyperparams.Step(lr).Add(iterations/2, lr/10).Add(3*iterations/4, lr/100), nil
	case "cosine":
		return hyperparams.Cosine(lr, lr/100, iterations), nil
	}

	return nil, errors.Wrapf(nd.ErrUnknownKind, "schedule %q", name)
}

func trainHandler(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	rng := newRand(cmd)

	train, test, err := loadData(cmd, rng)
	if err != nil {
		return err
	}

	cfg, err := configFromFlags(cmd, train.Features(), train.Classes())
	if err != nil {
		return err
	}

	kind, _ := f.GetString("kind")
	m, err := models.New(kind, cfg, rng)
	if err != nil {
		return err
	}

	batch, _ := f.GetInt("batch")
	trainData, err := train.Supplier(batch)
	if err != nil {
		return err
	}
	testData, err := test.Supplier(batch)
	if err != nil {
		return err
	}

	iterations, _ := f.GetInt("iterations")
	statusEvery, _ := f.GetInt("status-every")
	testEvery, _ := f.GetInt("test-every")
	if iterations < 1 || statusEvery < 1 || testEvery < 1 {
		return errors.Wrapf(nd.ErrInvalidConfig, "iterations, status-every and test-every must be positive")
	}

	targs := nd.TrainArgs{
		TrainData:    trainData,
		TestData:     testData,
		ShouldTest:   nd.Every(testEvery),
		SendStatus:   nd.Every(statusEvery),
		RunCondition: nd.TrainUntil(iterations),
		IsCorrect:    nd.CorrectHighest,
		Logger:       slog.Default(),
	}

	name, _ := f.GetString("optimizer")
	if targs.Optimizer, err = nd.NewOptimizer(name); err != nil {
		return err
	}
	name, _ = f.GetString("cost")
	if targs.CostFunction, err = nd.NewCostFunction(name); err != nil {
		return err
	}
	if name, _ = f.GetString("penalty"); name != "" {
		if targs.Penalty, err = nd.NewPenalty(name); err != nil {
			return err
		}
	}

	lr, _ := f.GetFloat64("lr")
	name, _ = f.GetString("schedule")
	if targs.LearningRate, err = schedule(name, lr, iterations); err != nil {
		return err
	}

	logutil.Trace(slog.Default(), "training", "kind", kind, "config", cfg, "parameters", nd.CountParams(m.Params()))

	if _, err = nd.Train(cmd.Context(), m, targs); err != nil {
		return err
	}

	output, _ := f.GetString("output")
	overwrite, _ := f.GetBool("overwrite")
	if err = models.Save(output, m, overwrite); err != nil {
		return err
	}

	_, acc, err := nd.Test(cmd.Context(), m, testData, targs.CostFunction, nd.CorrectHighest, nd.Eval)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "saved %s model with %d parameters to %s (test accuracy %.2f%%)\n",
		kind, m.NumberInferenceParameters(), output, 100*acc)
	return nil
}
