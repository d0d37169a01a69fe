package layers

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func randDense(rng *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

// flat returns the values of m in row-major order, ignoring any stride
func flat(m mat.Matrix) []float64 {
	return mat.DenseCopyOf(m).RawMatrix().Data
}

// padCols returns x with zero columns appended up to width
func padCols(x *mat.Dense, width int) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, width, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(x)
	return out
}

func requireMatApprox(t *testing.T, want, got mat.Matrix) {
	t.Helper()

	wr, wc := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, []int{wr, wc}, []int{gr, gc}, "dimensions")
	if diff := cmp.Diff(flat(want), flat(got), approx); diff != "" {
		t.Fatalf("matrices differ (-want +got):\n%s", diff)
	}
}

// weightedSum is the loss sum(out ⊙ g), whose derivative w.r.t. out is g
func weightedSum(out, g *mat.Dense) float64 {
	var e mat.Dense
	e.MulElem(out, g)
	return mat.Sum(&e)
}

// numericGrad estimates d loss / d v[i] for every i by central differences
func numericGrad(v []float64, loss func() float64) []float64 {
	const h = 1e-6

	g := make([]float64, len(v))
	for i := range v {
		orig := v[i]
		v[i] = orig + h
		plus := loss()
		v[i] = orig - h
		minus := loss()
		v[i] = orig
		g[i] = (plus - minus) / (2 * h)
	}
	return g
}

var gradApprox = cmpopts.EquateApprox(1e-5, 1e-6)
