package sweep

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/costfuncs"
	"github.com/sharnoff/nestdrop/datasets"
	"github.com/sharnoff/nestdrop/models"
)

func setup(t *testing.T) (models.Model, nd.DataSupplier) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))

	cfg := models.DefaultConfig(3, 4)
	cfg.HiddenSizes = []int{12, 12, 12}
	m, err := models.NewTriangleMLP(cfg, rng)
	require.NoError(t, err)

	d, err := datasets.Blobs(datasets.BlobsConfig{Samples: 64, Classes: 4, Features: 3, Spread: 0.2}, rng)
	require.NoError(t, err)
	data, err := d.Supplier(16)
	require.NoError(t, err)

	return m, data
}

func TestRange(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Range(1, 3, 1))
	assert.Equal(t, []int{1, 5, 9, 10}, Range(1, 10, 4))
	assert.Equal(t, []int{4}, Range(4, 4, 2))
	assert.Nil(t, Range(5, 4, 1))
}

func TestRunDefaultsReachWidestMLPLayer(t *testing.T) {
	_, data := setup(t)

	cfg := models.DefaultConfig(3, 4)
	cfg.HiddenSizes = []int{4, 8}
	m, err := models.NewMLP(cfg, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	points, err := Run(context.Background(), m, data, costfuncs.MSE(), Options{Workers: 2})
	require.NoError(t, err)
	require.Len(t, points, 8)
	assert.Equal(t, 8, points[7].Budget)
	assert.Less(t, points[3].Parameters, points[7].Parameters)
}

func TestRunMatchesSequential(t *testing.T) {
	m, data := setup(t)
	cf := costfuncs.CrossEntropy()

	points, err := Run(context.Background(), m, data, cf, Options{Budgets: []int{12, 3, 1, 7}, Workers: 4})
	require.NoError(t, err)
	require.Len(t, points, 4)

	var budgets []int
	for _, p := range points {
		budgets = append(budgets, p.Budget)

		cost, acc, err := nd.Test(context.Background(), m, data, cf, nd.CorrectHighest, nd.AtBudget(p.Budget))
		require.NoError(t, err)
		assert.Equal(t, cost, p.Cost, "budget %d", p.Budget)
		assert.Equal(t, acc, p.Accuracy, "budget %d", p.Budget)
		assert.Equal(t, m.InferenceParameters(p.Budget), p.Parameters)
	}
	assert.Equal(t, []int{1, 3, 7, 12}, budgets)

	// fewer budgets, fewer parameters
	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i-1].Parameters, points[i].Parameters)
	}
}

func TestRunDefaults(t *testing.T) {
	m, data := setup(t)
	points, err := Run(context.Background(), m, data, costfuncs.MSE(), Options{})
	require.NoError(t, err)
	require.Len(t, points, 12)
	assert.Equal(t, 12, points[11].Budget)

	_, err = Run(context.Background(), m, data, costfuncs.MSE(), Options{Budgets: []int{0}})
	assert.ErrorIs(t, err, nd.ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, m, data, costfuncs.MSE(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReports(t *testing.T) {
	points := []Point{
		{Budget: 1, Parameters: 20, Cost: 1.5, Accuracy: 0.25},
		{Budget: 2, Parameters: 36, Cost: 0.75, Accuracy: 0.5},
	}

	var buf bytes.Buffer
	WriteTable(&buf, points)
	out := buf.String()
	assert.Contains(t, out, "BUDGET")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "36")
	assert.Less(t, strings.Index(out, "BUDGET"), strings.Index(out, "50.00%"))

	buf.Reset()
	require.NoError(t, WritePlot(&buf, points, "sweep"))
	assert.Contains(t, buf.String(), "<svg")

	path := t.TempDir() + "/sweep.svg"
	require.NoError(t, SavePlot(path, points, "sweep"))
}
