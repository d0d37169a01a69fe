package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/envconfig"
	"github.com/sharnoff/nestdrop/models"
	"github.com/sharnoff/nestdrop/sweep"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep MODEL",
		Short: "Evaluate a saved model at every latent budget",
		Long: `Evaluate a saved model at every latent budget, printing the test cost, accuracy and
number of parameters used at each. Use the same --seed and data flags as were given to train, so
that the model is tested on the samples it was not trained on.`,
		Args: cobra.ExactArgs(1),
		RunE: sweepHandler,
	}

	f := cmd.Flags()
	f.IntSlice("budgets", nil, "Budgets to evaluate at (default every budget from 1 to the first hidden size)")
	f.Int("step", 1, "Distance between budgets, if --budgets isn't given")
	f.Int("workers", envconfig.Workers(), "Number of budgets to evaluate at once")
	f.Int("batch", 256, "Batch size")
	f.String("cost", "cross-entropy", "Cost function")
	f.String("plot", "", "File to save a plot of accuracy against budget to (e.g. sweep.svg)")

	return cmd
}

func sweepHandler(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	rng := newRand(cmd)

	_, test, err := loadData(cmd, rng)
	if err != nil {
		return err
	}

	m, err := models.Load(args[0], rng)
	if err != nil {
		return err
	}

	batch, _ := f.GetInt("batch")
	data, err := test.Supplier(batch)
	if err != nil {
		return err
	}

	name, _ := f.GetString("cost")
	cf, err := nd.NewCostFunction(name)
	if err != nil {
		return err
	}

	opts := sweep.Options{Logger: slog.Default(), IsCorrect: nd.CorrectHighest}
	opts.Workers, _ = f.GetInt("workers")
	if opts.Budgets, _ = f.GetIntSlice("budgets"); len(opts.Budgets) == 0 {
		step, _ := f.GetInt("step")
		opts.Budgets = sweep.Range(1, m.MaxBudget(), step)
	}

	points, err := sweep.Run(cmd.Context(), m, data, cf, opts)
	if err != nil {
		return err
	}

	sweep.WriteTable(cmd.OutOrStdout(), points)

	if path, _ := f.GetString("plot"); path != "" {
		title := fmt.Sprintf("%s model, %d parameters", m.TypeString(), m.InferenceParameters(0))
		if err = sweep.SavePlot(path, points, title); err != nil {
			return err
		}
	}

	return nil
}
