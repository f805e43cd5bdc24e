package optimizer

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/sw965/actorcritic/model/mlp"
)

// Optimizer applies one update to params in place.
type Optimizer interface {
	Step(params mlp.Parameters, grads mlp.GradBuffers) error
}

func New(name string, params mlp.Parameters, lr float32) (Optimizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "adam":
		adam := NewAdam(params)
		adam.LearningRate = lr
		return adam, nil
	case "momentum":
		return NewMomentum(params, lr, 0.9), nil
	default:
		return nil, fmt.Errorf("unsupported optimizer: %s", name)
	}
}

func checkSize(params mlp.Parameters, grads mlp.GradBuffers, state mlp.GradBuffers) error {
	if len(params) != len(grads) {
		return fmt.Errorf("parameters/grads size mismatch: %d != %d", len(params), len(grads))
	}
	if len(state) != len(params) {
		return fmt.Errorf("optimizer state was built for %d layers, got %d", len(state), len(params))
	}
	return nil
}

type Momentum struct {
	LearningRate float32
	Momentum     float32

	velocity mlp.GradBuffers
}

func NewMomentum(params mlp.Parameters, lr, momentum float32) *Momentum {
	return &Momentum{
		LearningRate: lr,
		Momentum:     momentum,
		velocity:     params.NewGradsZerosLike(),
	}
}

func (opt *Momentum) Step(params mlp.Parameters, grads mlp.GradBuffers) error {
	if err := checkSize(params, grads, opt.velocity); err != nil {
		return err
	}

	lr := opt.LearningRate
	mu := opt.Momentum
	for i := range grads {
		v := opt.velocity[i]
		for j, g := range grads[i].Weight.Data {
			v.Weight.Data[j] = (mu * v.Weight.Data[j]) - (lr * g)
			params[i].Weight.Data[j] += v.Weight.Data[j]
		}
		for j, g := range grads[i].Bias.Data {
			v.Bias.Data[j] = (mu * v.Bias.Data[j]) - (lr * g)
			params[i].Bias.Data[j] += v.Bias.Data[j]
		}
	}
	return nil
}

type Adam struct {
	LearningRate float32
	Beta1        float32
	Beta2        float32
	Epsilon      float32

	iter int
	m    mlp.GradBuffers
	v    mlp.GradBuffers
}

// NewAdam creates an Adam optimizer whose first and second moment buffers
// are zeros shaped like params.
func NewAdam(params mlp.Parameters) *Adam {
	return &Adam{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		iter:         0,
		m:            params.NewGradsZerosLike(),
		v:            params.NewGradsZerosLike(),
	}
}

func (a *Adam) Iter() int {
	return a.iter
}

func (a *Adam) Step(params mlp.Parameters, grads mlp.GradBuffers) error {
	if len(a.m) == 0 {
		a.m = params.NewGradsZerosLike()
		a.v = params.NewGradsZerosLike()
	}
	if err := checkSize(params, grads, a.m); err != nil {
		return err
	}

	a.iter++
	beta1, beta2 := a.Beta1, a.Beta2
	bc1 := 1 - math32.Pow(beta1, float32(a.iter))
	bc2 := math32.Sqrt(1 - math32.Pow(beta2, float32(a.iter)))
	lrt := a.LearningRate / bc1

	// Epsilon is added to the bias-corrected √v̂.
	for i := range grads {
		m, v := a.m[i], a.v[i]
		for j, g := range grads[i].Weight.Data {
			m.Weight.Data[j] += (1 - beta1) * (g - m.Weight.Data[j])
			v.Weight.Data[j] += (1 - beta2) * (g*g - v.Weight.Data[j])
			params[i].Weight.Data[j] -= lrt * m.Weight.Data[j] / (math32.Sqrt(v.Weight.Data[j])/bc2 + a.Epsilon)
		}
		for j, g := range grads[i].Bias.Data {
			m.Bias.Data[j] += (1 - beta1) * (g - m.Bias.Data[j])
			v.Bias.Data[j] += (1 - beta2) * (g*g - v.Bias.Data[j])
			params[i].Bias.Data[j] -= lrt * m.Bias.Data[j] / (math32.Sqrt(v.Bias.Data[j])/bc2 + a.Epsilon)
		}
	}
	return nil
}
