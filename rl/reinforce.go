package rl

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DiscountedReturns computes R_t = r_t + gamma·R_{t+1} from the end of the
// episode backwards, with R_{T+1} = 0.
func DiscountedReturns(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))
	r := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		r = rewards[t] + gamma*r
		returns[t] = r
	}
	return returns
}

// Normalize returns (x - mean) / (std + eps) using the unbiased sample
// standard deviation. With fewer than two elements the deviation is taken as
// zero so eps alone guards the division.
func Normalize(xs []float64, eps float64) []float64 {
	ys := make([]float64, len(xs))
	if len(xs) == 0 {
		return ys
	}

	var mean, std float64
	if len(xs) < 2 {
		mean = xs[0]
	} else {
		mean, std = stat.MeanStdDev(xs, nil)
	}
	for i, x := range xs {
		ys[i] = (x - mean) / (std + eps)
	}
	return ys
}

// SmoothL1 is the Huber loss with a transition point of 1.
func SmoothL1(x, y float64) float64 {
	d := math.Abs(x - y)
	if d < 1.0 {
		return 0.5 * d * d
	}
	return d - 0.5
}

// SmoothL1Derivative is ∂SmoothL1(x, y)/∂x.
func SmoothL1Derivative(x, y float64) float64 {
	d := x - y
	switch {
	case d >= 1.0:
		return 1.0
	case d <= -1.0:
		return -1.0
	default:
		return d
	}
}
