package datasets

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

func TestBlobs(t *testing.T) {
	cfg := BlobsConfig{Samples: 90, Classes: 3, Features: 4, Spread: 0.1}

	a, err := Blobs(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := Blobs(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 90, a.Len())
	assert.Equal(t, 4, a.Features())
	assert.Equal(t, 3, a.Classes())
	assert.True(t, mat.Equal(a.Inputs, b.Inputs), "same seed, same dataset")

	// one-hot and balanced
	counts := make([]float64, 3)
	for i := 0; i < a.Len(); i++ {
		row := a.Targets.RawRowView(i)
		assert.Equal(t, 1.0, row[0]+row[1]+row[2])
		for j, v := range row {
			counts[j] += v
		}
	}
	assert.Equal(t, []float64{30, 30, 30}, counts)

	_, err = Blobs(BlobsConfig{Samples: 0, Classes: 3, Features: 4}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, nd.ErrInvalidConfig)
	_, err = Blobs(cfg, nil)
	assert.ErrorAs(t, err, new(nd.NilArgError))
}

func TestSplit(t *testing.T) {
	d, err := Blobs(BlobsConfig{Samples: 10, Classes: 2, Features: 2, Spread: 1}, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	train, test, err := d.Split(0.8)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())
	assert.Equal(t, d.Inputs.RawRowView(8), test.Inputs.RawRowView(0))

	_, _, err = d.Split(1)
	assert.ErrorIs(t, err, nd.ErrInvalidConfig)
	_, _, err = d.Split(0.01)
	assert.ErrorIs(t, err, nd.ErrInvalidConfig)

	s, err := train.Supplier(3)
	require.NoError(t, err)
	assert.True(t, s.DoneTesting(3))
}

func TestLoadCSV(t *testing.T) {
	in := "1, 0.5, 2\n\n0,1,1\n2,0,4\n"
	d, err := LoadCSV(strings.NewReader(in), 3, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []float64{0.25, 1, 0.5, 0.5, 0, 2}, d.Inputs.RawMatrix().Data)
	assert.Equal(t, []float64{0, 1, 0, 1, 0, 0, 0, 0, 1}, d.Targets.RawMatrix().Data)

	_, err = LoadCSV(strings.NewReader("0,1,2\n1,2\n"), 2, 1)
	assert.ErrorAs(t, err, new(nd.SizeMismatchError))

	_, err = LoadCSV(strings.NewReader("3,1\n"), 2, 1)
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("a,1\n"), 2, 1)
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader(""), 2, 1)
	assert.Error(t, err)
}
