// Package ac implements a policy/value network with a shared hidden layer,
// an action head and a value head.
package ac

import (
	"fmt"
	"math/rand"

	"github.com/sw965/actorcritic/blas32/vector"
	"github.com/sw965/actorcritic/model/mlp"
	"gonum.org/v1/gonum/blas/blas32"
)

type Network struct {
	Trunk  mlp.Model
	Actor  mlp.Model
	Critic mlp.Model

	params mlp.Parameters
}

// NewNetwork builds obsN -> hiddenN (ReLU) -> {actionN (softmax), 1}.
func NewNetwork(obsN, hiddenN, actionN int, rng *rand.Rand) (*Network, error) {
	if obsN <= 0 || hiddenN <= 0 || actionN <= 0 {
		return nil, fmt.Errorf("layer sizes must be positive: obs=%d hidden=%d actions=%d", obsN, hiddenN, actionN)
	}

	n := &Network{}
	n.Trunk.AppendLinear(obsN, hiddenN, rng)
	n.Trunk.AppendReLU()

	n.Actor.AppendLinear(hiddenN, actionN, rng)
	n.Actor.AppendSoftmax()

	n.Critic.AppendLinear(hiddenN, 1, rng)

	n.params = make(mlp.Parameters, 0, len(n.Trunk.Parameters)+len(n.Actor.Parameters)+len(n.Critic.Parameters))
	n.params = append(n.params, n.Trunk.Parameters...)
	n.params = append(n.params, n.Actor.Parameters...)
	n.params = append(n.params, n.Critic.Parameters...)
	return n, nil
}

func (n *Network) ObservationSize() int {
	return n.Trunk.Parameters[0].Weight.Rows
}

func (n *Network) ActionSize() int {
	return n.Actor.Parameters[0].Weight.Cols
}

// Parameters returns trunk, actor and critic parameters in that order. The
// returned layers share storage with the network.
func (n *Network) Parameters() mlp.Parameters {
	return n.params
}

// Trace keeps what Backward needs from one forward pass.
type Trace struct {
	Probs blas32.Vector
	Value float32

	trunk  mlp.Backwards
	actor  mlp.Backwards
	critic mlp.Backwards
}

func (n *Network) Forward(x blas32.Vector) (Trace, error) {
	h, trunk, err := n.Trunk.Propagate(x)
	if err != nil {
		return Trace{}, fmt.Errorf("trunk: %w", err)
	}
	probs, actor, err := n.Actor.Propagate(h)
	if err != nil {
		return Trace{}, fmt.Errorf("actor: %w", err)
	}
	value, critic, err := n.Critic.Propagate(h)
	if err != nil {
		return Trace{}, fmt.Errorf("critic: %w", err)
	}
	return Trace{
		Probs:  probs,
		Value:  value.Data[0],
		trunk:  trunk,
		actor:  actor,
		critic: critic,
	}, nil
}

func (n *Network) Predict(x blas32.Vector) (blas32.Vector, float32, error) {
	tr, err := n.Forward(x)
	return tr.Probs, tr.Value, err
}

// Backward takes dL/dlogits of the action head and dL/dvalue and returns
// gradients laid out like Parameters.
func (n *Network) Backward(tr *Trace, dLogits blas32.Vector, dValue float32) (mlp.GradBuffers, error) {
	dhActor, actorGrads, err := tr.actor.Propagate(dLogits)
	if err != nil {
		return nil, fmt.Errorf("actor: %w", err)
	}
	dv := blas32.Vector{N: 1, Inc: 1, Data: []float32{dValue}}
	dhCritic, criticGrads, err := tr.critic.Propagate(dv)
	if err != nil {
		return nil, fmt.Errorf("critic: %w", err)
	}

	_, trunkGrads, err := tr.trunk.Propagate(vector.Add(dhActor, dhCritic))
	if err != nil {
		return nil, fmt.Errorf("trunk: %w", err)
	}

	grads := make(mlp.GradBuffers, 0, len(n.params))
	grads = append(grads, trunkGrads...)
	grads = append(grads, actorGrads...)
	grads = append(grads, criticGrads...)
	return grads, nil
}

func (n *Network) WriteJSON(path string) error {
	return n.params.WriteJSON(path)
}

func (n *Network) LoadJSON(path string) error {
	params, err := mlp.LoadParametersJSON(path)
	if err != nil {
		return err
	}
	return n.params.CopyFrom(params)
}
