package rand

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/seehuhn/mt19937"
)

// NewMt19937 returns a generator backed by a seeded Mersenne Twister.
func NewMt19937(seed int64) *rand.Rand {
	src := mt19937.New()
	src.Seed(seed)
	return rand.New(src)
}

// IntByWeight samples an index with probability proportional to ws[i].
func IntByWeight(ws []float32, rng *rand.Rand) (int, error) {
	if len(ws) == 0 {
		return 0, fmt.Errorf("weights must not be empty")
	}

	sum := float32(0.0)
	for _, w := range ws {
		if math32.IsNaN(w) || math32.IsInf(w, 0) {
			return 0, fmt.Errorf("weights must be finite, got %v", w)
		}
		if w < 0 {
			return 0, fmt.Errorf("weights must be non-negative, got %v", w)
		}
		sum += w
	}
	if sum <= 0 {
		return 0, fmt.Errorf("weights must not sum to zero")
	}

	threshold := rng.Float32() * sum
	cumulative := float32(0.0)
	for i, w := range ws {
		cumulative += w
		if threshold < cumulative {
			return i, nil
		}
	}
	// 丸め誤差対策
	for i := len(ws) - 1; i >= 0; i-- {
		if ws[i] > 0 {
			return i, nil
		}
	}
	return len(ws) - 1, nil
}
