// Package cartpole implements the classic cart-pole balancing task and
// registers it as CartPole-v0 and CartPole-v1.
package cartpole

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/sw965/actorcritic/gym"
	crand "github.com/sw965/actorcritic/math/rand"
)

const (
	gravity        = 9.8
	massCart       = 1.0
	massPole       = 0.1
	totalMass      = massCart + massPole
	length         = 0.5 // half the pole length
	poleMassLength = massPole * length
	forceMag       = 10.0
	tau            = 0.02

	XThreshold     = 2.4
	ThetaThreshold = 12.0 * 2.0 * math.Pi / 360.0
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrEpisodeDone   = errors.New("episode is done; call Reset")
)

var (
	SpecV0 = gym.Spec{ID: "CartPole-v0", MaxEpisodeSteps: 200, RewardThreshold: 195.0}
	SpecV1 = gym.Spec{ID: "CartPole-v1", MaxEpisodeSteps: 500, RewardThreshold: 475.0}
)

func init() {
	gym.Register(SpecV0.ID, func() gym.Env { return New(SpecV0) })
	gym.Register(SpecV1.ID, func() gym.Env { return New(SpecV1) })
}

type State struct {
	X        float64 `json:"x"`
	XDot     float64 `json:"x_dot"`
	Theta    float64 `json:"theta"`
	ThetaDot float64 `json:"theta_dot"`
}

func (s State) Observation() []float64 {
	return []float64{s.X, s.XDot, s.Theta, s.ThetaDot}
}

func (s State) Failed() bool {
	return s.X < -XThreshold || s.X > XThreshold || s.Theta < -ThetaThreshold || s.Theta > ThetaThreshold
}

type Env struct {
	State State
	Steps int
	Rand  *rand.Rand

	// Aurora colors Render output. Colors are off when nil.
	Aurora aurora.Aurora

	spec gym.Spec
	done bool
}

func New(spec gym.Spec) *Env {
	env := &Env{spec: spec}
	env.Seed(0)
	env.Reset()
	return env
}

func (e *Env) Spec() gym.Spec {
	return e.spec
}

func (e *Env) Seed(seed int64) {
	e.Rand = crand.NewMt19937(seed)
}

func (e *Env) ObservationSize() int {
	return 4
}

func (e *Env) ActionSize() int {
	return 2
}

func (e *Env) Reset() []float64 {
	e.State = State{
		X:        e.Rand.Float64()*0.1 - 0.05,
		XDot:     e.Rand.Float64()*0.1 - 0.05,
		Theta:    e.Rand.Float64()*0.1 - 0.05,
		ThetaDot: e.Rand.Float64()*0.1 - 0.05,
	}
	e.Steps = 0
	e.done = false
	return e.State.Observation()
}

// Step pushes the cart left (0) or right (1). Every step, including the one
// that ends the episode, yields a reward of 1. The episode ends when the pole
// falls, the cart leaves the track, or the time limit is reached.
func (e *Env) Step(action int) ([]float64, float64, bool, error) {
	if action != 0 && action != 1 {
		return nil, 0, false, fmt.Errorf("%w: %d", ErrInvalidAction, action)
	}
	if e.done {
		return nil, 0, true, ErrEpisodeDone
	}

	force := forceMag
	if action == 0 {
		force = -forceMag
	}

	x := e.State.X
	xDot := e.State.XDot
	theta := e.State.Theta
	thetaDot := e.State.ThetaDot

	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (length * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	x += tau * xDot
	xDot += tau * xAcc
	theta += tau * thetaDot
	thetaDot += tau * thetaAcc

	e.State = State{
		X:        x,
		XDot:     xDot,
		Theta:    theta,
		ThetaDot: thetaDot,
	}
	e.Steps++

	truncated := e.spec.MaxEpisodeSteps > 0 && e.Steps >= e.spec.MaxEpisodeSteps
	e.done = e.State.Failed() || truncated
	return e.State.Observation(), 1.0, e.done, nil
}

const trackWidth = 49

// Render writes one line showing the cart on the track and the lean of the
// pole.
func (e *Env) Render(w io.Writer) error {
	au := e.Aurora
	if au == nil {
		au = aurora.NewAurora(false)
	}

	pos := int(math.Round((e.State.X + XThreshold) / (2 * XThreshold) * float64(trackWidth-1)))
	pos = max(0, min(trackWidth-1, pos))

	lean := "|"
	switch {
	case e.State.Theta > ThetaThreshold/3:
		lean = "/"
	case e.State.Theta < -ThetaThreshold/3:
		lean = "\\"
	}

	track := []rune(strings.Repeat("-", trackWidth))
	left := string(track[:pos])
	right := string(track[pos+1:])

	cart := au.Green(lean)
	if e.State.Failed() {
		cart = au.Red(lean)
	}

	_, err := fmt.Fprintf(w, "[%s%s%s] step=%4d x=%+.3f theta=%+.3f\n",
		left, cart, right, e.Steps, e.State.X, e.State.Theta)
	return err
}
