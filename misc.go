package nestdrop

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// assumes len(outs) == len(targets)
func CorrectRound(outs, targets []float64) bool {
	for i := range outs {
		// rounds to 0 if a number is < 0.5, 1 if > 0.5. Tanh reduces the value to (0, 1)
		if math.Round(0.5*(1+math.Tanh(outs[i]-0.5))) != targets[i] {
			return false
		}
	}

	return true
}

// just returns whether or not the largest value in each is the same
func CorrectHighest(outs, targets []float64) bool {
	if len(outs) == 0 {
		return false
	}
	return floats.MaxIdx(outs) == floats.MaxIdx(targets)
}

// CountCorrect returns the number of rows of outs for which isCorrect is true, given the same row
// of targets.
func CountCorrect(outs, targets mat.Matrix, isCorrect func(outs, targets []float64) bool) int {
	r, c := outs.Dims()
	_, tc := targets.Dims()
	o := make([]float64, c)
	t := make([]float64, tc)

	var n int
	for i := 0; i < r; i++ {
		mat.Row(o, i, outs)
		mat.Row(t, i, targets)
		if isCorrect(o, t) {
			n++
		}
	}
	return n
}

// returns a function that satisfies TrainArgs.RunCondition
func TrainUntil(maxIterations int) func(int) bool {
	return func(iteration int) bool {
		return iteration < maxIterations
	}
}

// returns a function that satisfies TrainArgs.SendStatus or TrainArgs.ShouldTest
// 'frequency' is in units of iterations
//
// this function is self-explanatory from viewing the source
func Every(frequency int) func(int) bool {
	return func(iteration int) bool {
		return iteration%frequency == 0
	}
}

// returns a function that satisfies DataSupplier.DoneTesting: true once 'amount' batches have been
// tested
func EndEvery(amount int) func(int) bool {
	return func(tested int) bool {
		return tested >= amount
	}
}
