package optimizers

import nd "github.com/sharnoff/nestdrop"

func init() {
	list := map[string]func() nd.Optimizer{
		GradientDescent().TypeString(): func() nd.Optimizer { return GradientDescent() },
		Adam().TypeString():            func() nd.Optimizer { return Adam() },
	}

	for s, f := range list {
		if err := nd.RegisterOptimizer(s, f); err != nil {
			panic(err.Error())
		}
	}
}
