package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sharnoff/nestdrop/datasets"
	"github.com/sharnoff/nestdrop/envconfig"
	"github.com/sharnoff/nestdrop/logutil"
)

// appendEnvDocs adds the environment variables to the usage of the command
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI returns the root nestdrop command, with the train and sweep subcommands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "nestdrop",
		Short:         "Train budget-aware MLPs and evaluate them at every latent budget",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
		},
	}

	rootCmd.PersistentFlags().Int64("seed", int64(envconfig.Seed()), "Seed for the dataset, initial values and dropout")
	addDataFlags(rootCmd)

	envs := envconfig.AsMap()
	trainCmd := newTrainCmd()
	appendEnvDocs(trainCmd, []envconfig.EnvVar{envs["NESTDROP_SEED"], envs["NESTDROP_DEBUG"]})

	sweepCmd := newSweepCmd()
	appendEnvDocs(sweepCmd, []envconfig.EnvVar{envs["NESTDROP_SEED"], envs["NESTDROP_DEBUG"], envs["NESTDROP_WORKERS"]})

	rootCmd.AddCommand(trainCmd, sweepCmd)
	return rootCmd
}

func addDataFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("data", "", "CSV file of 'label,features...' lines to use instead of generated blobs")
	f.Float64("data-scale", 1, "Factor to multiply every feature of --data by")
	f.Int("samples", 2000, "Number of generated samples")
	f.Int("features", 16, "Number of input features")
	f.Int("classes", 4, "Number of classes")
	f.Float64("spread", 0.3, "Standard deviation of each generated blob")
	f.Float64("split", 0.8, "Fraction of the samples used for training; the rest are for testing")
}

// loadData builds the train and test datasets from the flags. The same seed and flags always give
// the same datasets, so that a sweep can test on what training held out.
func loadData(cmd *cobra.Command, rng *rand.Rand) (datasets.Dataset, datasets.Dataset, error) {
	f := cmd.Flags()
	path, _ := f.GetString("data")
	classes, _ := f.GetInt("classes")
	split, _ := f.GetFloat64("split")

	var d datasets.Dataset
	var err error
	if path != "" {
		scale, _ := f.GetFloat64("data-scale")

		file, err := os.Open(path)
		if err != nil {
			return datasets.Dataset{}, datasets.Dataset{}, errors.Wrapf(err, "Can't open dataset")
		}
		defer file.Close()

		if d, err = datasets.LoadCSV(file, classes, scale); err != nil {
			return datasets.Dataset{}, datasets.Dataset{}, err
		}
		d = d.Shuffle(rng)
	} else {
		cfg := datasets.BlobsConfig{Classes: classes}
		cfg.Samples, _ = f.GetInt("samples")
		cfg.Features, _ = f.GetInt("features")
		cfg.Spread, _ = f.GetFloat64("spread")

		if d, err = datasets.Blobs(cfg, rng); err != nil {
			return datasets.Dataset{}, datasets.Dataset{}, err
		}
	}

	return d.Split(split)
}

func newRand(cmd *cobra.Command) *rand.Rand {
	seed, _ := cmd.Flags().GetInt64("seed")
	return rand.New(rand.NewSource(seed))
}
