package penalties

import nd "github.com/sharnoff/nestdrop"

// DefaultLambda is the λ of the penalties given by the registry
const DefaultLambda float64 = 1e-4

func init() {
	list := map[string]func() nd.Penalty{
		ElasticNet(0, 0).TypeString(): func() nd.Penalty { return ElasticNet(0.5, DefaultLambda) },
		L1(0).TypeString():            func() nd.Penalty { return L1(DefaultLambda) },
		L2(0).TypeString():            func() nd.Penalty { return L2(DefaultLambda) },
	}

	for s, f := range list {
		if err := nd.RegisterPenalty(s, f); err != nil {
			panic(err)
		}
	}
}
