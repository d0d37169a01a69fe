package models

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/initializers"
)

var kinds = []string{TriangleKind, MLPKind}

func smallConfig() Config {
	cfg := DefaultConfig(3, 2)
	cfg.HiddenSizes = []int{4, 4, 4}
	return cfg
}

func build(t *testing.T, kind string, cfg Config, seed int64) Model {
	t.Helper()
	m, err := New(kind, cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return m
}

func randDense(rng *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

func flat(m mat.Matrix) []float64 {
	return mat.DenseCopyOf(m).RawMatrix().Data
}

func TestInferenceParameters(t *testing.T) {
	cases := []struct {
		kind   string
		budget int
		want   int
	}{
		{TriangleKind, 0, 16 + 14 + 14 + 10},
		{TriangleKind, 4, 16 + 14 + 14 + 10},
		{TriangleKind, 9, 16 + 14 + 14 + 10},
		{TriangleKind, 2, 8 + 5 + 5 + 6},
		{TriangleKind, 1, 4 + 2 + 2 + 4},
		{MLPKind, 0, 16 + 20 + 20 + 10},
		{MLPKind, 2, 8 + 6 + 6 + 6},
		{MLPKind, 1, 4 + 2 + 2 + 4},
	}

	for _, c := range cases {
		m := build(t, c.kind, smallConfig(), 1)
		assert.Equal(t, c.want, m.InferenceParameters(c.budget), "%s at %d", c.kind, c.budget)
	}

	for _, kind := range kinds {
		m := build(t, kind, smallConfig(), 1)
		assert.Equal(t, nd.CountParams(m.Params()), m.NumberInferenceParameters())

		require.NoError(t, m.SetLatentBudget(2))
		assert.Equal(t, m.InferenceParameters(2), m.NumberInferenceParameters())
		assert.Equal(t, 4, m.MaxBudget())
	}
}

// every parameter counted by InferenceParameters changes the output at that budget, and no other
// parameter does
func TestMaxBudget(t *testing.T) {
	cfg := smallConfig()
	cfg.HiddenSizes = []int{4, 8}

	// only the input layer is truncated in a TriangleMLP
	tri := build(t, TriangleKind, cfg, 1)
	assert.Equal(t, 4, tri.MaxBudget())
	assert.Equal(t, tri.InferenceParameters(4), tri.InferenceParameters(6))

	// but every hidden layer of an MLP is, so the wider second layer keeps changing
	mlp := build(t, MLPKind, cfg, 1)
	assert.Equal(t, 8, mlp.MaxBudget())
	assert.Equal(t, 46, mlp.InferenceParameters(4))
	assert.Equal(t, 60, mlp.InferenceParameters(6))
	assert.Equal(t, 74, mlp.InferenceParameters(8))
	assert.Equal(t, mlp.InferenceParameters(0), mlp.InferenceParameters(mlp.MaxBudget()))

	x := randDense(rand.New(rand.NewSource(2)), 5, 3)
	at := func(b int) []float64 {
		out, err := mlp.Forward(x, nd.AtBudget(b))
		require.NoError(t, err)
		return flat(out)
	}
	assert.NotEqual(t, at(4), at(6))
	assert.Equal(t, at(0), at(8))
}

func TestInferenceParametersArePrecise(t *testing.T) {
	for _, kind := range kinds {
		for _, backflow := range []int{0, 1} {
			cfg := smallConfig()
			cfg.HiddenSizes = []int{5, 6, 4}
			cfg.Backflow = backflow
			cfg.Dropout.LowerBound = 1

			m := build(t, kind, cfg, 2)
			x := randDense(rand.New(rand.NewSource(3)), 2, 3)

			for budget := 1; budget <= m.MaxBudget(); budget++ {
				pass := nd.AtBudget(budget)
				base, err := m.Forward(x, pass)
				require.NoError(t, err)

				var used int
				for _, p := range m.Params() {
					for i := range p.Value {
						orig := p.Value[i]
						p.Value[i] += 0.5
						out, err := m.Forward(x, pass)
						require.NoError(t, err)
						p.Value[i] = orig

						if !mat.EqualApprox(base, out, 1e-12) {
							used++
						}
					}
				}

				assert.Equal(t, used, m.InferenceParameters(budget), "%s backflow %d budget %d", kind, backflow, budget)
			}
		}
	}
}

func TestConfigInvalid(t *testing.T) {
	cases := map[string]func(c *Config){
		"no hidden":       func(c *Config) { c.HiddenSizes = nil },
		"zero hidden":     func(c *Config) { c.HiddenSizes = []int{4, 0} },
		"zero in":         func(c *Config) { c.InFeatures = 0 },
		"negative flow":   func(c *Config) { c.Backflow = -1 },
		"zero skip":       func(c *Config) { c.Skip = 0 },
		"bad p":           func(c *Config) { c.Dropout.P = 2 },
		"bound too small": func(c *Config) { c.Dropout.LowerBound = 0 },
		"bound too large": func(c *Config) { c.Dropout.LowerBound = 5 },
	}

	for name, f := range cases {
		cfg := smallConfig()
		f(&cfg)
		for _, kind := range kinds {
			_, err := New(kind, cfg, rand.New(rand.NewSource(1)))
			assert.ErrorIs(t, err, nd.ErrInvalidConfig, "%s: %s", kind, name)
		}
	}

	cfg := smallConfig()
	cfg.Init = initializers.Kind(9)
	_, err := NewTriangleMLP(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, nd.ErrUnknownKind)

	cfg = smallConfig()
	cfg.Activation = "sigmoid"
	_, err = NewMLP(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, nd.ErrUnknownKind)

	_, err = New("conv", smallConfig(), rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, nd.ErrUnknownKind)

	_, err = NewTriangleMLP(smallConfig(), nil)
	assert.ErrorAs(t, err, new(nd.NilArgError))

	// the lower bound has to fit every hidden layer of an MLP, but only the first of a TriangleMLP
	cfg = smallConfig()
	cfg.HiddenSizes = []int{4, 2}
	cfg.Dropout.LowerBound = 3
	_, err = NewMLP(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, nd.ErrInvalidConfig)
	_, err = NewTriangleMLP(cfg, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)

	cfg = smallConfig()
	cfg.HiddenSizes = []int{2, 2}
	cfg.Backflow = 1
	_, err = NewTriangleMLP(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, nd.ErrDegenerateMask)
}

func TestInitKinds(t *testing.T) {
	for _, kind := range kinds {
		cfg := smallConfig()
		cfg.Init = initializers.KindZero
		m := build(t, kind, cfg, 1)

		for _, p := range m.Params() {
			for _, v := range p.Value {
				require.Zero(t, v)
			}
		}

		out, err := m.Forward(randDense(rand.New(rand.NewSource(1)), 3, 3), nd.Eval)
		require.NoError(t, err)
		for _, v := range flat(out) {
			assert.Zero(t, v)
		}

		cfg.Init = initializers.KindSiren
		m = build(t, kind, cfg, 1)
		for _, p := range m.Params() {
			limit := math.Sqrt(6 / float64(p.FanIn))
			for _, v := range p.Value {
				if p.Bias {
					require.Zero(t, v, p.Name)
				} else {
					require.True(t, math.Abs(v) <= limit, "%s: %v outside ±%v", p.Name, v, limit)
				}
			}
		}

		cfg.Init = initializers.KindKaiming
		m = build(t, kind, cfg, 1)
		for _, p := range m.Params() {
			var nonzero bool
			for _, v := range p.Value {
				nonzero = nonzero || v != 0
			}
			assert.Equal(t, !p.Bias, nonzero, p.Name)
		}
	}
}

func TestTriangleDefaultInit(t *testing.T) {
	m, err := NewTriangleMLP(smallConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for _, l := range m.Hidden() {
		for _, p := range l.Params() {
			for _, v := range p.Value {
				require.True(t, v >= 0 && v < 1, "%s: %v", p.Name, v)
			}
		}
	}
}

func TestTriangleFlipsAlternateLayers(t *testing.T) {
	cfg := smallConfig()
	cfg.HiddenSizes = []int{4, 4, 4, 4, 4}
	m, err := NewTriangleMLP(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	var flips []bool
	for _, l := range m.Hidden() {
		flips = append(flips, l.Flipped())
	}
	assert.Equal(t, []bool{false, true, false, true}, flips)

	cfg.Flip = false
	m, err = NewTriangleMLP(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	for _, l := range m.Hidden() {
		assert.False(t, l.Flipped())
	}
}

func TestSkipHasNoEffect(t *testing.T) {
	x := randDense(rand.New(rand.NewSource(5)), 2, 3)
	for _, kind := range kinds {
		a := smallConfig()
		a.Skip = 1
		b := smallConfig()
		b.Skip = 7

		outA, err := build(t, kind, a, 4).Forward(x, nd.Eval)
		require.NoError(t, err)
		outB, err := build(t, kind, b, 4).Forward(x, nd.Eval)
		require.NoError(t, err)
		assert.Equal(t, flat(outA), flat(outB))
	}
}

func TestForwardShapes(t *testing.T) {
	for _, kind := range kinds {
		m := build(t, kind, smallConfig(), 1)
		rng := rand.New(rand.NewSource(2))

		for budget := 0; budget <= 6; budget++ {
			out, err := m.Forward(randDense(rng, 5, 3), nd.AtBudget(budget))
			require.NoError(t, err)
			r, c := out.Dims()
			assert.Equal(t, []int{5, 2}, []int{r, c})
		}

		_, err := m.Forward(mat.NewDense(1, 4, nil), nd.Eval)
		assert.ErrorAs(t, err, new(nd.SizeMismatchError))

		assert.ErrorIs(t, m.Backward(mat.NewDense(1, 2, nil)), nd.ErrNoCache)
	}
}

func TestEvalIsStateless(t *testing.T) {
	for _, kind := range kinds {
		m := build(t, kind, smallConfig(), 1)
		x := randDense(rand.New(rand.NewSource(2)), 3, 3)

		a, err := m.Forward(x, nd.AtBudget(2))
		require.NoError(t, err)
		_, err = m.Forward(x, nd.Eval)
		require.NoError(t, err)
		b, err := m.Forward(x, nd.AtBudget(2))
		require.NoError(t, err)
		assert.Equal(t, flat(a), flat(b))

		assert.ErrorIs(t, m.Backward(mat.NewDense(3, 2, nil)), nd.ErrNoCache)
	}
}

func TestApply(t *testing.T) {
	for _, kind := range kinds {
		m := build(t, kind, smallConfig(), 1)
		x := randDense(rand.New(rand.NewSource(2)), 6, 3)

		want, err := m.Forward(x, nd.Eval)
		require.NoError(t, err)

		values, shape, err := m.Apply(flat(x), []int{2, 3, 3}, nd.Eval)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 2}, shape)
		assert.Equal(t, flat(want), values)

		_, _, err = m.Apply(flat(x), []int{3, 6}, nd.Eval)
		assert.ErrorAs(t, err, new(nd.SizeMismatchError))
		_, _, err = m.Apply(flat(x), []int{5, 3}, nd.Eval)
		assert.ErrorAs(t, err, new(nd.SizeMismatchError))
		_, _, err = m.Apply(nil, nil, nd.Eval)
		assert.ErrorIs(t, err, nd.ErrInvalidConfig)
	}
}

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

func TestGradient(t *testing.T) {
	cases := []struct {
		kind string
		p    float64
	}{
		{TriangleKind, 0},
		{TriangleKind, 1},
		{MLPKind, 0},
	}

	for _, c := range cases {
		cfg := smallConfig()
		cfg.HiddenSizes = []int{5, 5, 4}
		cfg.Backflow = 1
		cfg.Dropout.P = c.p
		cfg.Activation = "tanh"

		m := build(t, c.kind, cfg, 3)
		rng := rand.New(rand.NewSource(4))
		x := randDense(rng, 4, 3)
		g := randDense(rng, 4, 2)

		_, err := m.Forward(x, nd.TrainPass)
		require.NoError(t, err)

		// evaluate at whatever the training pass drew, so the loss is the function that was
		// differentiated
		var pass nd.Pass
		if tri, ok := m.(*TriangleMLP); ok {
			pass = nd.AtBudget(tri.cutoff)
		}

		nd.ZeroGrads(m.Params())
		require.NoError(t, m.Backward(g))

		loss := func() float64 {
			out, err := m.Forward(x, pass)
			require.NoError(t, err)
			var e mat.Dense
			e.MulElem(out, g)
			return mat.Sum(&e)
		}

		for _, p := range m.Params() {
			want := numericGrad(p.Value, loss)
			if diff := cmp.Diff(want, p.Grad, cmpopts.EquateApprox(1e-5, 1e-6)); diff != "" {
				t.Errorf("%s p=%v %s grad (-want +got):\n%s", c.kind, c.p, p.Name, diff)
			}
		}
	}
}

func TestStepReducesLoss(t *testing.T) {
	for _, kind := range kinds {
		cfg := smallConfig()
		cfg.Dropout.P = 0
		cfg.Init = initializers.KindKaiming
		m := build(t, kind, cfg, 6)

		rng := rand.New(rand.NewSource(7))
		x := randDense(rng, 8, 3)
		target := randDense(rng, 8, 2)

		loss := func() float64 {
			out, err := m.Forward(x, nd.Eval)
			require.NoError(t, err)
			var d mat.Dense
			d.Sub(out, target)
			return 0.5 * floats.Dot(d.RawMatrix().Data, d.RawMatrix().Data)
		}

		before := loss()

		out, err := m.Forward(x, nd.TrainPass)
		require.NoError(t, err)
		var grad mat.Dense
		grad.Sub(out, target)
		require.NoError(t, m.Backward(&grad))

		for _, p := range m.Params() {
			for i := range p.Value {
				p.Value[i] -= 1e-4 * p.Grad[i]
			}
		}

		assert.Less(t, loss(), before, kind)
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, kind := range kinds {
		cfg := smallConfig()
		cfg.Init = initializers.KindKaiming
		cfg.Backflow = 1
		m := build(t, kind, cfg, 8)
		require.NoError(t, m.SetLatentBudget(3))

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, m))

		loaded, err := Decode(&buf, rand.New(rand.NewSource(99)))
		require.NoError(t, err)

		assert.Equal(t, kind, loaded.TypeString())
		assert.Equal(t, 3, loaded.LatentBudget())
		if diff := cmp.Diff(m.Config(), loaded.Config()); diff != "" {
			t.Errorf("config (-want +got):\n%s", diff)
		}

		x := randDense(rand.New(rand.NewSource(1)), 3, 3)
		for budget := 0; budget <= 4; budget++ {
			a, err := m.Forward(x, nd.AtBudget(budget))
			require.NoError(t, err)
			b, err := loaded.Forward(x, nd.AtBudget(budget))
			require.NoError(t, err)
			assert.Equal(t, flat(a), flat(b))
		}
	}
}

func TestDecodeMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, build(t, TriangleKind, smallConfig(), 1)))

	// swap the kind, which keeps the config valid but changes the parameter sizes
	data := bytes.Replace(buf.Bytes(), []byte(`"kind": "triangle"`), []byte(`"kind": "mlp"`), 1)
	_, err := Decode(bytes.NewReader(data), rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	_, err = Decode(bytes.NewReader([]byte("{")), rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := t.TempDir() + "/nested/model.json"
	m := build(t, TriangleKind, smallConfig(), 1)

	require.NoError(t, Save(path, m, false))
	assert.Error(t, Save(path, m, false))
	require.NoError(t, Save(path, m, true))

	loaded, err := Load(path, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.Equal(t, nd.CountParams(m.Params()), nd.CountParams(loaded.Params()))

	_, err = Load(t.TempDir()+"/missing.json", rand.New(rand.NewSource(2)))
	assert.Error(t, err)
}
