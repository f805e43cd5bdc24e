package rl

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/sw965/actorcritic/blas32/vector"
	crand "github.com/sw965/actorcritic/math/rand"
	"github.com/sw965/actorcritic/model/ac"
	"github.com/sw965/actorcritic/optimizer"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyEpisode    = errors.New("episode has no timesteps")
	ErrLengthMismatch  = errors.New("rewards and saved actions differ in length")
	ErrObservationSize = errors.New("observation size does not match the network input")
	ErrNonFinite       = errors.New("network output is not finite")
)

// SavedAction is what the episode finisher needs from one timestep.
type SavedAction struct {
	LogProb float32
	Value   float32

	action int
	trace  ac.Trace
}

func (s *SavedAction) Action() int {
	return s.action
}

type Loss struct {
	Policy float64
	Value  float64
	Steps  int
}

func (l Loss) Total() float64 {
	return l.Policy + l.Value
}

type Agent struct {
	Network   *ac.Network
	Optimizer optimizer.Optimizer
	Gamma     float64
	Eps       float64

	SavedActions []SavedAction
	Rewards      []float64

	rng *rand.Rand
}

func NewAgent(network *ac.Network, opt optimizer.Optimizer, gamma, eps float64, rng *rand.Rand) (*Agent, error) {
	if network == nil {
		return nil, fmt.Errorf("network must not be nil")
	}
	if opt == nil {
		return nil, fmt.Errorf("optimizer must not be nil")
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("gamma must be in [0, 1], got %v", gamma)
	}
	if eps <= 0 {
		return nil, fmt.Errorf("eps must be positive, got %v", eps)
	}
	if rng == nil {
		return nil, fmt.Errorf("rng must not be nil")
	}
	return &Agent{
		Network:   network,
		Optimizer: opt,
		Gamma:     gamma,
		Eps:       eps,
		rng:       rng,
	}, nil
}

// SelectAction samples an action from the policy and records its
// log-probability and the value estimate for the episode finisher.
func (a *Agent) SelectAction(obs []float64) (int, error) {
	if len(obs) != a.Network.ObservationSize() {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrObservationSize, len(obs), a.Network.ObservationSize())
	}

	tr, err := a.Network.Forward(vector.FromFloat64s(obs))
	if err != nil {
		return 0, err
	}
	if !vector.IsFinite(tr.Probs) || math32.IsNaN(tr.Value) || math32.IsInf(tr.Value, 0) {
		return 0, fmt.Errorf("%w: probs %v, value %v", ErrNonFinite, tr.Probs.Data, tr.Value)
	}
	action, err := crand.IntByWeight(tr.Probs.Data, a.rng)
	if err != nil {
		return 0, fmt.Errorf("sample action from %v: %w", tr.Probs.Data, err)
	}

	p := math32.Max(tr.Probs.Data[action], math32.SmallestNonzeroFloat32)
	a.SavedActions = append(a.SavedActions, SavedAction{
		LogProb: math32.Log(p),
		Value:   tr.Value,
		action:  action,
		trace:   tr,
	})
	return action, nil
}

func (a *Agent) Reward(r float64) {
	a.Rewards = append(a.Rewards, r)
}

func (a *Agent) Steps() int {
	return len(a.SavedActions)
}

// ClearEpisode empties both per-episode buffers. Saved actions are released
// together with their backward closures.
func (a *Agent) ClearEpisode() {
	a.SavedActions = nil
	a.Rewards = a.Rewards[:0]
}

// FinishEpisode turns the recorded episode into one optimizer step and
// clears both per-episode buffers. Nothing is updated for an empty episode.
func (a *Agent) FinishEpisode() (Loss, error) {
	n := len(a.SavedActions)
	if n != len(a.Rewards) {
		err := fmt.Errorf("%w: %d rewards, %d saved actions", ErrLengthMismatch, len(a.Rewards), n)
		a.ClearEpisode()
		return Loss{}, err
	}
	if n == 0 {
		return Loss{}, ErrEmptyEpisode
	}
	defer a.ClearEpisode()

	returns := Normalize(DiscountedReturns(a.Rewards, a.Gamma), a.Eps)

	policyLosses := make([]float64, n)
	valueLosses := make([]float64, n)
	total := a.Network.Parameters().NewGradsZerosLike()
	actionN := a.Network.ActionSize()

	for t := range a.SavedActions {
		saved := &a.SavedActions[t]
		r := returns[t]
		advantage := r - float64(saved.Value)

		policyLosses[t] = -float64(saved.LogProb) * advantage
		valueLosses[t] = SmoothL1(float64(saved.Value), r)

		// ∂(-A·log π(a))/∂logits = A·(π - onehot(a))
		dLogits := vector.Clone(saved.trace.Probs)
		blas32.Axpy(-1.0, vector.NewOneHot(actionN, saved.action), dLogits)
		blas32.Scal(float32(advantage), dLogits)
		dValue := float32(SmoothL1Derivative(float64(saved.Value), r))

		grads, err := a.Network.Backward(&saved.trace, dLogits, dValue)
		if err != nil {
			return Loss{}, fmt.Errorf("timestep %d: %w", t, err)
		}
		total.Axpy(1.0, grads)
	}

	if err := a.Optimizer.Step(a.Network.Parameters(), total); err != nil {
		return Loss{}, fmt.Errorf("optimizer step: %w", err)
	}

	return Loss{
		Policy: floats.Sum(policyLosses),
		Value:  floats.Sum(valueLosses),
		Steps:  n,
	}, nil
}
