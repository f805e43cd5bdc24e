package mlp

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/chewxy/math32"
	"github.com/sw965/actorcritic/blas32/tensor/2d"
	"github.com/sw965/actorcritic/blas32/vector"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

var ErrShapeMismatch = errors.New("shape mismatch")

type GradBuffer struct {
	Weight blas32.General
	Bias   blas32.Vector
}

func (g *GradBuffer) Axpy(alpha float32, x *GradBuffer) {
	if x.Weight.Rows != 0 {
		tensor2d.Axpy(alpha, x.Weight, g.Weight)
	}

	if x.Bias.N != 0 {
		blas32.Axpy(alpha, x.Bias, g.Bias)
	}
}

type GradBuffers []GradBuffer

func (gs GradBuffers) Axpy(alpha float32, xs GradBuffers) {
	for i, g := range gs {
		g.Axpy(alpha, &xs[i])
	}
}

type Parameter struct {
	Weight blas32.General
	Bias   blas32.Vector
}

func newEmptyParameter() Parameter {
	return Parameter{
		Weight: blas32.General{Rows: 0, Cols: 0, Stride: 0, Data: []float32{}},
		Bias:   blas32.Vector{N: 0, Inc: 0, Data: []float32{}},
	}
}

func (p *Parameter) NewGradZerosLike() GradBuffer {
	return GradBuffer{
		Weight: tensor2d.NewZerosLike(p.Weight),
		Bias:   vector.NewZerosLike(p.Bias),
	}
}

func (p *Parameter) SameShape(other *Parameter) bool {
	return tensor2d.SameShape(p.Weight, other.Weight) && p.Bias.N == other.Bias.N
}

type Parameters []Parameter

func (ps Parameters) NewGradsZerosLike() GradBuffers {
	grads := make(GradBuffers, len(ps))
	for i, p := range ps {
		grads[i] = p.NewGradZerosLike()
	}
	return grads
}

// N returns the number of scalar parameters.
func (ps Parameters) N() int {
	n := 0
	for _, p := range ps {
		n += tensor2d.N(p.Weight) + p.Bias.N
	}
	return n
}

// CopyFrom overwrites the values of ps in place, keeping the backing arrays
// that forward closures and optimizers already hold.
func (ps Parameters) CopyFrom(src Parameters) error {
	if len(ps) != len(src) {
		return fmt.Errorf("%w: %d layers != %d layers", ErrShapeMismatch, len(ps), len(src))
	}
	for i := range ps {
		if !ps[i].SameShape(&src[i]) {
			return fmt.Errorf("%w: layer %d", ErrShapeMismatch, i)
		}
	}
	for i := range ps {
		copy(ps[i].Weight.Data, src[i].Weight.Data)
		copy(ps[i].Bias.Data, src[i].Bias.Data)
	}
	return nil
}

type Forward func(blas32.Vector, *Parameter) (blas32.Vector, Backward, error)
type Forwards []Forward

func (fs Forwards) Propagate(x blas32.Vector, params Parameters) (blas32.Vector, Backwards, error) {
	var err error
	var backward Backward
	backwards := make(Backwards, len(fs))
	for i, f := range fs {
		x, backward, err = f(x, &params[i])
		if err != nil {
			return blas32.Vector{}, nil, err
		}
		backwards[i] = backward
	}
	y := x
	slices.Reverse(backwards)
	return y, backwards, nil
}

type Backward func(blas32.Vector) (blas32.Vector, GradBuffer, error)
type Backwards []Backward

func (bs Backwards) Propagate(chain blas32.Vector) (blas32.Vector, GradBuffers, error) {
	grads := make(GradBuffers, len(bs))
	var grad GradBuffer
	var err error
	for i, b := range bs {
		chain, grad, err = b(chain)
		if err != nil {
			return blas32.Vector{}, nil, err
		}
		grads[i] = grad
	}
	dx := chain
	slices.Reverse(grads)
	return dx, grads, nil
}

func AffineForward(x blas32.Vector, param *Parameter) (blas32.Vector, Backward, error) {
	if x.N != param.Weight.Rows {
		return blas32.Vector{}, nil, fmt.Errorf("%w: affine input %d, weight rows %d", ErrShapeMismatch, x.N, param.Weight.Rows)
	}

	y := vector.Affine(x, param.Weight, param.Bias)

	var backward Backward
	backward = func(chain blas32.Vector) (blas32.Vector, GradBuffer, error) {
		wRows := param.Weight.Rows
		wCols := param.Weight.Cols
		if chain.N != wCols {
			return blas32.Vector{}, GradBuffer{}, fmt.Errorf("%w: affine chain %d, weight cols %d", ErrShapeMismatch, chain.N, wCols)
		}

		dx := vector.NewZeros(wRows)
		blas32.Gemv(blas.NoTrans, 1.0, param.Weight, chain, 1.0, dx)

		dw := tensor2d.NewZeros(wRows, wCols)
		blas32.Ger(1.0, x, chain, dw)

		db := vector.NewZeros(chain.N)
		blas32.Copy(chain, db)

		grad := GradBuffer{
			Weight: dw,
			Bias:   db,
		}
		return dx, grad, nil
	}
	return y, backward, nil
}

func NewLeakyReLUForward(alpha float32) Forward {
	return func(x blas32.Vector, _ *Parameter) (blas32.Vector, Backward, error) {
		xData := x.Data
		yData := make([]float32, x.N)
		for i := range yData {
			e := xData[i]
			if e > 0 {
				yData[i] = e
			} else {
				yData[i] = alpha * e
			}
		}

		y := blas32.Vector{
			N:    x.N,
			Inc:  x.Inc,
			Data: yData,
		}

		var backward Backward
		backward = func(chain blas32.Vector) (blas32.Vector, GradBuffer, error) {
			chainData := chain.Data
			dxData := make([]float32, chain.N)
			for i, e := range xData {
				if e > 0 {
					dxData[i] = chainData[i]
				} else {
					dxData[i] = alpha * chainData[i]
				}
			}
			dx := blas32.Vector{
				N:    chain.N,
				Inc:  chain.Inc,
				Data: dxData,
			}
			return dx, GradBuffer{}, nil
		}

		return y, backward, nil
	}
}

var ReLUForward = NewLeakyReLUForward(0.0)

func Softmax(x blas32.Vector) blas32.Vector {
	xData := x.Data
	maxX := slices.Max(xData) // オーバーフロー対策
	expX := make([]float32, x.N)
	sumExpX := float32(0.0)
	for i, e := range xData {
		expX[i] = math32.Exp(e - maxX)
		sumExpX += expX[i]
	}

	yData := make([]float32, x.N)
	for i := range expX {
		yData[i] = expX[i] / sumExpX
	}

	return blas32.Vector{
		N:    x.N,
		Inc:  1,
		Data: yData,
	}
}

// SoftmaxForOutputForward must be the last layer. Its backward expects the
// chain to already be dL/dlogits, as produced by a cross-entropy derivative.
func SoftmaxForOutputForward(x blas32.Vector, _ *Parameter) (blas32.Vector, Backward, error) {
	y := Softmax(x)

	var backward Backward
	backward = func(chain blas32.Vector) (blas32.Vector, GradBuffer, error) {
		dx := chain
		return dx, GradBuffer{}, nil
	}
	return y, backward, nil
}

type Model struct {
	Parameters Parameters
	Forwards   Forwards
}

// AppendLinear adds a layer whose weight and bias are drawn from
// U(-1/√xn, 1/√xn).
func (m *Model) AppendLinear(xn, yn int, rng *rand.Rand) {
	bound := 1.0 / math32.Sqrt(float32(xn))
	param := Parameter{
		Weight: tensor2d.NewUniform(xn, yn, -bound, bound, rng),
		Bias:   vector.NewUniform(yn, -bound, bound, rng),
	}
	m.Parameters = append(m.Parameters, param)
	m.Forwards = append(m.Forwards, AffineForward)
}

func (m *Model) AppendReLU() {
	m.Parameters = append(m.Parameters, newEmptyParameter())
	m.Forwards = append(m.Forwards, ReLUForward)
}

func (m *Model) AppendSoftmax() {
	m.Parameters = append(m.Parameters, newEmptyParameter())
	m.Forwards = append(m.Forwards, SoftmaxForOutputForward)
}

func (m *Model) Predict(x blas32.Vector) (blas32.Vector, error) {
	y, _, err := m.Forwards.Propagate(x, m.Parameters)
	return y, err
}

func (m *Model) Propagate(x blas32.Vector) (blas32.Vector, Backwards, error) {
	return m.Forwards.Propagate(x, m.Parameters)
}
