package models

import (
	"encoding/json"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	nd "github.com/sharnoff/nestdrop"
)

type savedParam struct {
	Name  string    `json:"name"`
	Value []float64 `json:"value"`
}

type savedModel struct {
	Kind         string       `json:"kind"`
	Config       Config       `json:"config"`
	LatentBudget int          `json:"latent_budget,omitempty"`
	Params       []savedParam `json:"params"`
}

// Encode writes the model, as JSON, to w: its kind, Config, latent budget and every parameter.
func Encode(w io.Writer, m Model) error {
	s := savedModel{
		Kind:         m.TypeString(),
		Config:       m.Config(),
		LatentBudget: m.LatentBudget(),
	}

	for _, p := range m.Params() {
		s.Params = append(s.Params, savedParam{Name: p.Name, Value: p.Value})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(s)
}

// Decode reads a model written by Encode. rng is given to the rebuilt dropout; the initial values
// it would otherwise draw are all overwritten.
func Decode(r io.Reader, rng *rand.Rand) (Model, error) {
	var s savedModel
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "Can't load model, failed to decode")
	}

	m, err := New(s.Kind, s.Config, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load model")
	}

	ps := m.Params()
	if len(ps) != len(s.Params) {
		return nil, errors.Wrapf(nd.ErrInvalidConfig, "Can't load model, expected %d parameters, got %d", len(ps), len(s.Params))
	}

	for i, p := range ps {
		sp := s.Params[i]
		if sp.Name != p.Name {
			return nil, errors.Wrapf(nd.ErrInvalidConfig, "Can't load model, parameter %d should be %q, got %q", i, p.Name, sp.Name)
		} else if len(sp.Value) != p.Size() {
			return nil, nd.SizeMismatchError{Expected: p.Size(), Got: len(sp.Value), What: "saved " + p.Name}
		}

		copy(p.Value, sp.Value)
	}

	if err = m.SetLatentBudget(s.LatentBudget); err != nil {
		return nil, errors.Wrapf(err, "Can't load model")
	}

	return m, nil
}

// Save writes the model to the file at path, creating any directories needed (with permissions
// 0700).
//
// if 'overwrite' is false and the file already exists, Save will return error.
func Save(path string, m Model, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.Errorf("Can't save model, file %s already exists, and overwrite is not enabled", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrapf(err, "Couldn't make directory to save model")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Can't save model, couldn't create file %s", path)
	}

	if err = Encode(f, m); err != nil {
		f.Close()
		return errors.Wrapf(err, "Can't save model")
	}

	return f.Close()
}

// Load reads a model previously written by Save.
func Load(path string, rng *rand.Rand) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load model")
	}
	defer f.Close()

	return Decode(f, rng)
}
