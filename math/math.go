package math

// Float32Epsilon is the difference between 1 and the next float32 above it.
const Float32Epsilon = 1.1920929e-07

func CentralDifference(plusY, minusY, h float32) float32 {
	return (plusY - minusY) / (2.0 * h)
}
