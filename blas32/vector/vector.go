package vector

import (
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

func NewZeros(n int) blas32.Vector {
	return blas32.Vector{
		N:    n,
		Inc:  1,
		Data: make([]float32, n),
	}
}

func NewZerosLike(vec blas32.Vector) blas32.Vector {
	return NewZeros(vec.N)
}

// NewUniform returns a vector drawn from U(low, high).
func NewUniform(n int, low, high float32, rng *rand.Rand) blas32.Vector {
	vec := NewZeros(n)
	for i := range vec.Data {
		vec.Data[i] = low + (high-low)*rng.Float32()
	}
	return vec
}

// NewOneHot returns a vector of length n with a 1 at idx.
func NewOneHot(n, idx int) blas32.Vector {
	vec := NewZeros(n)
	vec.Data[idx] = 1.0
	return vec
}

func Clone(vec blas32.Vector) blas32.Vector {
	return blas32.Vector{
		N:    vec.N,
		Inc:  vec.Inc,
		Data: slices.Clone(vec.Data),
	}
}

func FromFloat64s(xs []float64) blas32.Vector {
	vec := NewZeros(len(xs))
	for i, x := range xs {
		vec.Data[i] = float32(x)
	}
	return vec
}

// Affine computes wᵀx + b.
func Affine(x blas32.Vector, w blas32.General, b blas32.Vector) blas32.Vector {
	yn := len(b.Data)
	y := blas32.Vector{N: yn, Inc: 1, Data: make([]float32, yn)}
	blas32.Copy(b, y)
	blas32.Gemv(blas.Trans, 1.0, w, x, 1.0, y)
	return y
}

func Add(x, y blas32.Vector) blas32.Vector {
	z := Clone(y)
	blas32.Axpy(1.0, x, z)
	return z
}

func IsFinite(vec blas32.Vector) bool {
	for _, e := range vec.Data {
		f := float64(e)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
