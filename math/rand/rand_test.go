package rand_test

import (
	"math"
	"testing"

	crand "github.com/sw965/actorcritic/math/rand"
)

func TestNewMt19937IsDeterministic(t *testing.T) {
	a := crand.NewMt19937(543)
	b := crand.NewMt19937(543)
	for i := 0; i < 16; i++ {
		if x, y := a.Int63(), b.Int63(); x != y {
			t.Fatalf("draw %d differs: %d != %d", i, x, y)
		}
	}
}

func TestIntByWeight(t *testing.T) {
	rng := crand.NewMt19937(1)
	ws := []float32{0.2, 0.0, 0.8}
	counts := make([]int, len(ws))
	n := 20000
	for i := 0; i < n; i++ {
		idx, err := crand.IntByWeight(ws, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts[idx]++
	}

	if counts[1] != 0 {
		t.Errorf("zero-weight index drawn %d times", counts[1])
	}
	ratio := float64(counts[2]) / float64(n)
	if ratio < 0.77 || ratio > 0.83 {
		t.Errorf("expected ≈0.8 for index 2, got %.3f", ratio)
	}
}

func TestIntByWeightErrors(t *testing.T) {
	rng := crand.NewMt19937(1)
	testCases := []struct {
		name string
		ws   []float32
	}{
		{"empty", nil},
		{"negative", []float32{0.5, -0.1}},
		{"zero sum", []float32{0, 0}},
		{"nan", []float32{float32(math.NaN()), float32(math.NaN())}},
		{"inf", []float32{0.5, float32(math.Inf(1))}},
	}
	for _, tc := range testCases {
		if _, err := crand.IntByWeight(tc.ws, rng); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}
