package anynerf

import (
	"math"

	"github.com/unixpickle/anydiff"
)

// A Cost provides a way to measure how far rendered pixels
// are from the ground truth.
//
// Costs are batched: given n packed pixels, a Cost
// produces n costs.
type Cost interface {
	Cost(desired, actual anydiff.Res, n int) anydiff.Res
}

// MSE evaluates cost as the squared Euclidean distance
// between the actual and desired output.
type MSE struct{}

// Cost computes, for each output, the mean squared
// distance between the actual and desired output value.
func (m MSE) Cost(desired, actual anydiff.Res, n int) anydiff.Res {
	neg := anydiff.Scale(actual, actual.Output().Creator().MakeNumeric(-1))
	diff := anydiff.Add(desired, neg)
	sq := anydiff.Square(diff)
	numComps := sq.Output().Len() / n
	sum := anydiff.SumCols(&anydiff.Matrix{
		Data: sq,
		Rows: n,
		Cols: numComps,
	})
	normalizer := 1.0 / float64(numComps)
	return anydiff.Scale(sum, sum.Output().Creator().MakeNumeric(normalizer))
}

// MeanCost averages a batched cost over all n entries,
// producing a one-component result suitable for
// back-propagation.
func MeanCost(c Cost, desired, actual anydiff.Res, n int) anydiff.Res {
	total := anydiff.Sum(c.Cost(desired, actual, n))
	return anydiff.Scale(total, total.Output().Creator().MakeNumeric(1/float64(n)))
}

// PSNR converts a mean squared error on [0, 1] colors to
// a peak signal-to-noise ratio in decibels.
func PSNR(mse float64) float64 {
	return 10 * math.Log10(1/mse)
}
