package nestdrop

// Pass describes a single forward computation. It is threaded through every layer so that the
// evaluation budget is an explicit value rather than state reached into from outside.
type Pass struct {
	// Training passes draw random cutoffs and record what Backward needs.
	Training bool

	// Budget, when non-zero, overrides the latent budget for evaluation passes. It is ignored by
	// training passes.
	Budget int
}

var (
	// Eval is an evaluation pass at whatever latent budget is configured.
	Eval = Pass{}

	// TrainPass is a training pass.
	TrainPass = Pass{Training: true}
)

// AtBudget returns an evaluation pass restricted to the first 'width' hidden features.
func AtBudget(width int) Pass {
	return Pass{Budget: width}
}

// Param is one learnable tensor, stored flat, along with the gradient accumulated for it since the
// last call to ZeroGrad.
type Param struct {
	Name string

	Value []float64
	Grad  []float64

	// FanIn and FanOut are the dense-equivalent fan sizes, used by variance-scaling initializers.
	FanIn, FanOut int

	// Bias marks bias vectors, which initializers and penalties treat differently from weights.
	Bias bool
}

// NewParam allocates a Param of the given size.
func NewParam(name string, size, fanIn, fanOut int, bias bool) *Param {
	return &Param{
		Name:   name,
		Value:  make([]float64, size),
		Grad:   make([]float64, size),
		FanIn:  fanIn,
		FanOut: fanOut,
		Bias:   bias,
	}
}

// Size returns the number of scalars in the Param.
func (p *Param) Size() int {
	return len(p.Value)
}

// ZeroGrad resets the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// ZeroGrads calls ZeroGrad on each of the given Params.
func ZeroGrads(ps []*Param) {
	for _, p := range ps {
		p.ZeroGrad()
	}
}

// CountParams returns the total number of scalars across the given Params.
func CountParams(ps []*Param) int {
	var n int
	for _, p := range ps {
		n += p.Size()
	}

	return n
}
