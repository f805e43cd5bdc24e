package rl_test

import (
	"math"
	"testing"

	"github.com/sw965/actorcritic/rl"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestDiscountedReturns(t *testing.T) {
	testCases := []struct {
		name     string
		rewards  []float64
		gamma    float64
		expected []float64
	}{
		{"undiscounted", []float64{1, 1, 1}, 1.0, []float64{3, 2, 1}},
		{"sparse terminal reward", []float64{0, 0, 1}, 0.99, []float64{0.9801, 0.99, 1}},
		{"myopic", []float64{2, 5, 7}, 0.0, []float64{2, 5, 7}},
		{"empty", nil, 0.99, []float64{}},
	}

	for _, tc := range testCases {
		result := rl.DiscountedReturns(tc.rewards, tc.gamma)
		if !floats.EqualApprox(result, tc.expected, 1e-12) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, result)
		}
	}
}

func TestDiscountedReturnsMatchesClosedForm(t *testing.T) {
	rewards := []float64{0.5, -1, 2, 0, 3, 1}
	gamma := 0.9
	result := rl.DiscountedReturns(rewards, gamma)
	for t0 := range rewards {
		expected := 0.0
		for k := t0; k < len(rewards); k++ {
			expected += math.Pow(gamma, float64(k-t0)) * rewards[k]
		}
		if math.Abs(result[t0]-expected) > 1e-12 {
			t.Errorf("t=%d: expected %v, got %v", t0, expected, result[t0])
		}
	}
}

func TestNormalize(t *testing.T) {
	eps := 1.1920929e-07
	xs := rl.DiscountedReturns([]float64{1, 1, 1, 1, 1, 1, 1, 1}, 0.99)
	ys := rl.Normalize(xs, eps)

	mean, std := stat.MeanStdDev(ys, nil)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("expected mean ≈0, got %v", mean)
	}
	if math.Abs(std-1) > 1e-5 {
		t.Errorf("expected std ≈1, got %v", std)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	eps := 1.1920929e-07

	single := rl.Normalize([]float64{42}, eps)
	if len(single) != 1 || single[0] != 0 || math.IsNaN(single[0]) {
		t.Errorf("single element: expected [0], got %v", single)
	}

	constant := rl.Normalize([]float64{3, 3, 3}, eps)
	for _, y := range constant {
		if y != 0 {
			t.Errorf("constant sequence: expected zeros, got %v", constant)
			break
		}
	}

	if empty := rl.Normalize(nil, eps); len(empty) != 0 {
		t.Errorf("empty: expected no elements, got %v", empty)
	}
}

func TestSmoothL1(t *testing.T) {
	testCases := []struct {
		x, y       float64
		loss, grad float64
	}{
		{0.5, 0, 0.125, 0.5},
		{0, 0.5, 0.125, -0.5},
		{3, 0, 2.5, 1},
		{-2, 0, 1.5, -1},
		{1, 1, 0, 0},
	}
	for _, tc := range testCases {
		if loss := rl.SmoothL1(tc.x, tc.y); math.Abs(loss-tc.loss) > 1e-12 {
			t.Errorf("SmoothL1(%v, %v): expected %v, got %v", tc.x, tc.y, tc.loss, loss)
		}
		if grad := rl.SmoothL1Derivative(tc.x, tc.y); math.Abs(grad-tc.grad) > 1e-12 {
			t.Errorf("SmoothL1Derivative(%v, %v): expected %v, got %v", tc.x, tc.y, tc.grad, grad)
		}
	}
}
