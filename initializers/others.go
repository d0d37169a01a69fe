package initializers

type leCun struct {
	*varianceScaling
}

// LeCun draws from a normal with variance 1/fanIn, truncated at "normal-trunc" standard deviations.
func LeCun() leCun {
	return leCun{VarianceScaling().In()}
}

type he struct {
	*varianceScaling
}

// He is LeCun with twice the variance.
func He() he {
	return he{VarianceScaling().In().Factor(2)}
}

type xavier struct {
	*varianceScaling
}

// Xavier is LeCun with variance 2/(fanIn+fanOut).
func Xavier() xavier {
	return xavier{VarianceScaling().Avg()}
}

// Glorot is another name for Xavier
func Glorot() xavier {
	return Xavier()
}

// Siren draws weights uniformly from ±sqrt(6/fanIn) and zeroes biases.
func Siren() *varianceScaling {
	return VarianceScaling().In().Uniform().Factor(2).ZeroBias()
}

// Kaiming draws weights from a normal distribution with standard deviation sqrt(2/fanOut), as
// suited to ReLU-like activations, and zeroes biases.
func Kaiming() *varianceScaling {
	return VarianceScaling().Out().Normal().Factor(2).ZeroBias()
}
