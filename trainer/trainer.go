// Package trainer trains an actor-critic agent on a gym environment.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/sw965/actorcritic/engine"
	"github.com/sw965/actorcritic/gym"
	crand "github.com/sw965/actorcritic/math/rand"
	"github.com/sw965/actorcritic/model/ac"
	"github.com/sw965/actorcritic/optimizer"
	"github.com/sw965/actorcritic/rl"
)

type History struct {
	Lengths        []int
	RunningRewards []float64
	PolicyLosses   []float64
	ValueLosses    []float64
}

func (h *History) append(length int, runningReward float64, loss rl.Loss) {
	h.Lengths = append(h.Lengths, length)
	h.RunningRewards = append(h.RunningRewards, runningReward)
	h.PolicyLosses = append(h.PolicyLosses, loss.Policy)
	h.ValueLosses = append(h.ValueLosses, loss.Value)
}

type Result struct {
	Episodes      int
	Iterations    int
	LastLength    int
	RunningReward float64
	Solved        bool
	History       History
}

// Trainer drives one agent through episodes of Env. Episode lengths in the
// log, History and the running reward count the steps taken, one more than
// the index of the last step.
type Trainer struct {
	Config Config
	Env    gym.Env
	Agent  *rl.Agent
	Logger *log.Logger

	// Aurora colors the solved message. Colors are off when nil.
	Aurora aurora.Aurora
	// RenderOutput receives Env.Render frames when Config.Render is set.
	RenderOutput io.Writer

	RunningReward float64
	LastLength    int
	Solved        bool
	History       History

	engine      *engine.Engine
	observation []float64
}

// New seeds env, builds the network and optimizer described by cfg, and
// loads cfg.ResumePath when it is set. A nil logger logs to log.Default().
func New(cfg Config, env gym.Env, logger *log.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, fmt.Errorf("env must not be nil")
	}
	if logger == nil {
		logger = log.Default()
	}

	env.Seed(cfg.Seed)
	rng := crand.NewMt19937(cfg.Seed)

	network, err := ac.NewNetwork(env.ObservationSize(), cfg.Hidden, env.ActionSize(), rng)
	if err != nil {
		return nil, err
	}
	if cfg.ResumePath != "" {
		if err := network.LoadJSON(cfg.ResumePath); err != nil {
			return nil, fmt.Errorf("resume from %s: %w", cfg.ResumePath, err)
		}
	}

	opt, err := optimizer.New(cfg.Optimizer, network.Parameters(), float32(cfg.LearningRate))
	if err != nil {
		return nil, err
	}
	agent, err := rl.NewAgent(network, opt, cfg.Gamma, cfg.Eps, rng)
	if err != nil {
		return nil, err
	}

	t := &Trainer{
		Config:       cfg,
		Env:          env,
		Agent:        agent,
		Logger:       logger,
		RenderOutput: os.Stdout,
	}
	t.engine = engine.New(t)
	t.engine.On(engine.EpisodeCompleted, t.logEpisode, engine.Every(cfg.LogInterval))
	t.engine.On(engine.EpisodeCompleted, t.checkSolved)
	return t, nil
}

// Engine exposes the training loop so callers can register more handlers.
func (t *Trainer) Engine() *engine.Engine {
	return t.engine
}

func (t *Trainer) OnStart(e *engine.Engine) error {
	t.RunningReward = t.Config.InitialRunningReward
	t.LastLength = 0
	t.Solved = false
	t.History = History{}
	return nil
}

func (t *Trainer) OnEpisodeStart(e *engine.Engine) error {
	t.Agent.ClearEpisode()
	t.observation = t.Env.Reset()
	return nil
}

func (t *Trainer) OnStep(e *engine.Engine, step int) error {
	action, err := t.Agent.SelectAction(t.observation)
	if err != nil {
		return err
	}
	obs, reward, done, err := t.Env.Step(action)
	if err != nil {
		return err
	}
	if t.Config.Render {
		if err := t.Env.Render(t.RenderOutput); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	t.Agent.Reward(reward)
	t.observation = obs
	if done {
		e.TerminateEpisode()
	}
	return nil
}

// OnEpisodeEnd folds the episode length into the running reward and updates
// the agent with the finished episode.
func (t *Trainer) OnEpisodeEnd(e *engine.Engine) error {
	t.LastLength = e.State.Steps
	s := t.Config.Smoothing
	t.RunningReward = t.RunningReward*(1-s) + float64(t.LastLength)*s

	loss, err := t.Agent.FinishEpisode()
	if err != nil {
		return err
	}
	t.History.append(t.LastLength, t.RunningReward, loss)
	return nil
}

func (t *Trainer) logEpisode(e *engine.Engine) error {
	t.Logger.Printf("Episode %d\tLast length: %5d\tAverage length: %.2f",
		e.State.Episode, t.LastLength, t.RunningReward)
	return nil
}

func (t *Trainer) checkSolved(e *engine.Engine) error {
	threshold := t.Env.Spec().RewardThreshold
	if threshold <= 0 || t.RunningReward <= threshold {
		return nil
	}

	au := t.Aurora
	if au == nil {
		au = aurora.NewAurora(false)
	}
	msg := fmt.Sprintf("Solved! Running reward is now %v and the last episode runs to %d time steps!",
		t.RunningReward, t.LastLength)
	t.Logger.Print(au.Green(msg))
	t.Solved = true
	e.Terminate()
	return nil
}

// Run trains until the running reward exceeds the environment's reward
// threshold or Config.MaxEpisodes episodes have been played. The network is
// written to Config.CheckpointPath afterwards, also when ctx was cancelled.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	state, runErr := t.engine.Run(ctx, t.Config.EpisodeLength, t.Config.MaxEpisodes)
	result := Result{
		Episodes:      state.Episode,
		Iterations:    state.Iteration,
		LastLength:    t.LastLength,
		RunningReward: t.RunningReward,
		Solved:        t.Solved,
		History:       t.History,
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return result, runErr
	}
	if t.Config.CheckpointPath != "" {
		if err := t.Agent.Network.WriteJSON(t.Config.CheckpointPath); err != nil {
			return result, errors.Join(runErr, fmt.Errorf("checkpoint: %w", err))
		}
	}
	return result, runErr
}
