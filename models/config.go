package models

import (
	"github.com/pkg/errors"

	nd "github.com/sharnoff/nestdrop"
	"github.com/sharnoff/nestdrop/initializers"
	"github.com/sharnoff/nestdrop/layers"
)

// DropoutConfig sets up the StructuredDropout that follows the first layer of a model.
type DropoutConfig struct {
	P          float64 `json:"p"`
	LowerBound int     `json:"lower_bound"`
	ZeroPad    bool    `json:"zero_pad"`
}

// Config describes the shape of a budget-aware MLP.
type Config struct {
	InFeatures  int   `json:"in_features"`
	OutFeatures int   `json:"out_features"`
	HiddenSizes []int `json:"hidden_sizes"`

	Bias bool `json:"bias"`

	// Backflow widens the band of each triangular layer below its diagonal. Unused by MLP.
	Backflow int `json:"backflow"`

	// Flip reverses the outputs of every other triangular layer. Unused by MLP.
	Flip bool `json:"flip"`

	// Skip is reserved for skip connections every Skip hidden layers. It's validated and saved,
	// but has no effect.
	Skip int `json:"skip"`

	Init       initializers.Kind `json:"init"`
	Activation string            `json:"activation"`

	Dropout DropoutConfig `json:"dropout"`
}

// DefaultConfig returns the configuration of a three-hidden-layer model of width 256, with biases,
// flipping, and a dropout that truncates half the time.
func DefaultConfig(in, out int) Config {
	return Config{
		InFeatures:  in,
		OutFeatures: out,
		HiddenSizes: []int{256, 256, 256},
		Bias:        true,
		Flip:        true,
		Skip:        3,
		Init:        initializers.KindDefault,
		Activation:  "leaky-relu",
		Dropout: DropoutConfig{
			P:          0.5,
			LowerBound: 1,
		},
	}
}

// Validate checks everything about the Config that doesn't depend on the kind of model. The
// returned errors wrap nestdrop.ErrInvalidConfig or nestdrop.ErrUnknownKind.
func (c Config) Validate() error {
	if c.InFeatures < 1 || c.OutFeatures < 1 {
		return errors.Wrapf(nd.ErrInvalidConfig, "model must have positive sizes (in: %d, out: %d)", c.InFeatures, c.OutFeatures)
	} else if len(c.HiddenSizes) == 0 {
		return errors.Wrapf(nd.ErrInvalidConfig, "model must have at least one hidden size")
	}

	for i, h := range c.HiddenSizes {
		if h < 1 {
			return errors.Wrapf(nd.ErrInvalidConfig, "hidden size %d must be positive (%d)", i, h)
		}
	}

	if c.Backflow < 0 {
		return errors.Wrapf(nd.ErrInvalidConfig, "backflow must be non-negative (%d)", c.Backflow)
	} else if c.Skip < 1 {
		return errors.Wrapf(nd.ErrInvalidConfig, "skip must be at least 1 (%d)", c.Skip)
	}

	if !(c.Dropout.P >= 0 && c.Dropout.P <= 1) {
		return errors.Wrapf(nd.ErrInvalidConfig, "dropout probability must be in [0, 1] (%v)", c.Dropout.P)
	} else if c.Dropout.LowerBound < 1 || c.Dropout.LowerBound > c.HiddenSizes[0] {
		return errors.Wrapf(nd.ErrInvalidConfig, "dropout lower bound must be in [1, %d] (%d)", c.HiddenSizes[0], c.Dropout.LowerBound)
	}

	if _, err := c.Init.Initializer(); err != nil {
		return err
	} else if _, err := layers.ParseActivation(c.Activation); err != nil {
		return err
	}

	return nil
}
