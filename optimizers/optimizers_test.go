package optimizers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nd "github.com/sharnoff/nestdrop"
)

func TestGradientDescent(t *testing.T) {
	p := nd.NewParam("w", 3, 1, 1, false)
	copy(p.Value, []float64{1, 2, 3})
	copy(p.Grad, []float64{1, -1, 0})

	require.NoError(t, SGD().Run(p, 0.5))
	assert.Equal(t, []float64{0.5, 2.5, 3}, p.Value)

	// gradients are left for the caller to reset
	assert.Equal(t, []float64{1, -1, 0}, p.Grad)
}

func TestAdamFirstStep(t *testing.T) {
	p := nd.NewParam("w", 2, 1, 1, false)
	copy(p.Value, []float64{1, 1})
	copy(p.Grad, []float64{4, -0.01})

	// after bias correction, the first step is lr * g/|g| for each value
	require.NoError(t, Adam().Run(p, 0.1))
	assert.InDelta(t, 0.9, p.Value[0], 1e-6)
	assert.InDelta(t, 1.1, p.Value[1], 1e-5)
}

func TestAdamMinimizes(t *testing.T) {
	// minimize (w - 3)^2
	p := nd.NewParam("w", 1, 1, 1, false)
	opt := Adam()
	for i := 0; i < 2000; i++ {
		p.Grad[0] = 2 * (p.Value[0] - 3)
		require.NoError(t, opt.Run(p, 0.05))
	}

	assert.InDelta(t, 3, p.Value[0], 0.05)
	assert.False(t, math.IsNaN(p.Value[0]))
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"sgd", "adam"} {
		opt, err := nd.NewOptimizer(name)
		require.NoError(t, err)
		assert.Equal(t, name, opt.TypeString())
	}

	_, err := nd.NewOptimizer("rmsprop")
	assert.ErrorIs(t, err, nd.ErrUnknownKind)
	assert.Equal(t, []string{"adam", "sgd"}, nd.Optimizers())
}
