// Package nestdrop provides the training framework for budget-aware MLPs: networks trained with a
// structured dropout so that, once trained, they can be evaluated using only the first k of their
// hidden features, for any k, without retraining.
//
// For brevity, nestdrop is abbreviated 'nd'.
//
// Creating Models
//
// The models themselves live in the subpackage "models". Both kinds are built from a Config and a
// *rand.Rand, which is the only source of randomness for their initial values and for the dropout:
//
//		cfg := models.DefaultConfig(inputs, classes)
//		cfg.HiddenSizes = []int{64, 64, 64}
//
//		m, err := models.New(models.TriangleKind, cfg, rand.New(rand.NewSource(seed)))
//		if err != nil {
//			return err
//		}
//
// TriangleKind gives a model whose hidden layers are triangular, so the first k hidden features
// only ever depend on (and feed into) a nested block of the weights. MLPKind gives the same shape
// with ordinary dense hidden layers, each truncated to the same width. The layers they are made of
// (TriangleLinear, Linear, StructuredDropout, and the activations) are in "layers".
//
// Every forward computation is given a Pass. Training passes (nd.TrainPass) draw a random cutoff; eval
// passes (nd.Eval) use the model's latent budget, and nd.AtBudget(k) overrides it for one pass:
//
//		outs, err := m.Forward(inputs, nd.AtBudget(8))
//
// Eval passes never write to the model, so one model may be evaluated at many budgets at once. The
// subpackage "sweep" does exactly that.
//
// Training and Testing
//
// Training is done with the function Train, with TrainArgs used as a proxy for the optional
// arguments that are available in other languages (such as Python):
//
//		func Train(ctx context.Context, m Model, args TrainArgs) (int, error)
//
// Data is given by a DataSupplier, which provides Batches of inputs and targets. Data converts a
// pair of matrices into one. Optimizers, cost functions, hyperparameters and penalties are in the
// subpackages of the same names; each registers itself by name, so that, once imported, they can
// also be built with NewOptimizer, NewCostFunction, NewHyperParameter and NewPenalty.
//
// Testing can be done both during training (see TrainArgs) and through a separate function, Test:
//
//		func Test(ctx context.Context, m Model, data DataSupplier, cf CostFunction, isCorrect func([]float64, []float64) bool, pass Pass) (float64, float64, error)
//
// Saving and Loading
//
// Models are saved to (and loaded from) a single JSON file, holding the kind, the Config, the
// latent budget and the values of every Param:
//
//		err := models.Save(path, m, overwrite)
//		m, err := models.Load(path, rng)
package nestdrop
