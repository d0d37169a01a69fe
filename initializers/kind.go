package initializers

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	nd "github.com/sharnoff/nestdrop"
)

// Kind names one of the initialization schemes that a model can be built with.
type Kind int8

const (
	// KindDefault keeps whatever values the layers were constructed with.
	KindDefault Kind = iota
	KindZero
	KindSiren
	KindKaiming
	KindLeCun
	KindHe
	KindXavier
)

var kindNames = map[Kind]string{
	KindDefault: "default",
	KindZero:    "zero",
	KindSiren:   "siren",
	KindKaiming: "kaiming",
	KindLeCun:   "lecun",
	KindHe:      "he",
	KindXavier:  "xavier",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int8(k))
}

// ParseKind returns the Kind with the given name, ignoring case. An empty name is KindDefault, and
// "glorot" is KindXavier.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(name)
	switch name {
	case "":
		return KindDefault, nil
	case "glorot":
		return KindXavier, nil
	}

	for k, s := range kindNames {
		if s == name {
			return k, nil
		}
	}

	return 0, errors.Wrapf(nd.ErrUnknownKind, "initialization %q", name)
}

// Initializer returns the Initializer for the Kind, or nil for KindDefault.
func (k Kind) Initializer() (nd.Initializer, error) {
	switch k {
	case KindDefault:
		return nil, nil
	case KindZero:
		return Zero(), nil
	case KindSiren:
		return Siren(), nil
	case KindKaiming:
		return Kaiming(), nil
	case KindLeCun:
		return LeCun(), nil
	case KindHe:
		return He(), nil
	case KindXavier:
		return Xavier(), nil
	}

	return nil, errors.Wrapf(nd.ErrUnknownKind, "initialization %d", int(k))
}

// Apply initializes each of the Params with the Kind's scheme. KindDefault leaves them unchanged.
func (k Kind) Apply(ps []*nd.Param, rng *rand.Rand) error {
	ini, err := k.Initializer()
	if err != nil {
		return err
	} else if ini == nil {
		return nil
	}

	for _, p := range ps {
		ini.Set(p, rng)
	}
	return nil
}

// MarshalText encodes the Kind by its name
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, errors.Wrapf(nd.ErrUnknownKind, "initialization %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = kind
	return nil
}
