// Package engine runs an episodic loop and dispatches events to hooks and
// handlers registered on it.
package engine

import (
	"context"
	"fmt"
)

type Event int

const (
	Started Event = iota
	EpisodeStarted
	StepStarted
	StepCompleted
	EpisodeCompleted
	Completed
)

func (e Event) String() string {
	switch e {
	case Started:
		return "started"
	case EpisodeStarted:
		return "episode_started"
	case StepStarted:
		return "step_started"
	case StepCompleted:
		return "step_completed"
	case EpisodeCompleted:
		return "episode_completed"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

func (e Event) stepEvent() bool {
	return e == StepStarted || e == StepCompleted
}

// Hooks are called by Run before any handler registered for the same event.
type Hooks interface {
	OnStart(*Engine) error
	OnEpisodeStart(*Engine) error
	OnStep(e *Engine, step int) error
	OnEpisodeEnd(*Engine) error
}

type State struct {
	// Iteration counts steps over the whole run and never resets.
	Iteration int
	// Episode is 1-based once the first episode has started.
	Episode int
	// Step is the 0-based index of the current step within the episode.
	Step int
	// Steps is the number of steps the current or last episode ran.
	Steps int

	EpisodeLength int
	MaxEpisodes   int
}

type Handler func(*Engine) error

// Filter decides whether a handler fires for the current state.
type Filter func(State, Event) bool

// Every fires on every n-th episode for episode events and on every n-th
// iteration for step events.
func Every(n int) Filter {
	return func(s State, ev Event) bool {
		if n <= 1 {
			return true
		}
		if ev.stepEvent() {
			return s.Iteration%n == 0
		}
		return s.Episode%n == 0
	}
}

type registered struct {
	handler Handler
	filters []Filter
}

type Engine struct {
	State State

	hooks            Hooks
	handlers         map[Event][]registered
	shouldTerminate  bool
	terminateEpisode bool
}

func New(hooks Hooks) *Engine {
	return &Engine{
		hooks:    hooks,
		handlers: map[Event][]registered{},
	}
}

// On registers h for ev. Handlers of the same event fire in registration
// order.
func (e *Engine) On(ev Event, h Handler, filters ...Filter) {
	e.handlers[ev] = append(e.handlers[ev], registered{handler: h, filters: filters})
}

// TerminateEpisode ends the current episode after the running step.
func (e *Engine) TerminateEpisode() {
	e.terminateEpisode = true
}

// Terminate stops the run once the current episode has completed.
func (e *Engine) Terminate() {
	e.shouldTerminate = true
}

func (e *Engine) ShouldTerminate() bool {
	return e.shouldTerminate
}

func (e *Engine) fire(ev Event) error {
	for _, r := range e.handlers[ev] {
		ok := true
		for _, f := range r.filters {
			if !f(e.State, ev) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if err := r.handler(e); err != nil {
			return fmt.Errorf("%s handler: %w", ev, err)
		}
	}
	return nil
}

// Run plays up to maxEpisodes episodes of at most episodeLength steps each.
// The run ends early when Terminate is called or ctx is cancelled. Any hook
// or handler error aborts the run and is returned with the state reached.
func (e *Engine) Run(ctx context.Context, episodeLength, maxEpisodes int) (State, error) {
	if episodeLength <= 0 {
		return e.State, fmt.Errorf("episodeLength must be positive, got %d", episodeLength)
	}
	if maxEpisodes <= 0 {
		return e.State, fmt.Errorf("maxEpisodes must be positive, got %d", maxEpisodes)
	}

	e.State = State{EpisodeLength: episodeLength, MaxEpisodes: maxEpisodes}
	e.shouldTerminate = false

	if e.hooks != nil {
		if err := e.hooks.OnStart(e); err != nil {
			return e.State, fmt.Errorf("on start: %w", err)
		}
	}
	if err := e.fire(Started); err != nil {
		return e.State, err
	}

	for !e.shouldTerminate && e.State.Episode < maxEpisodes {
		if err := ctx.Err(); err != nil {
			return e.State, err
		}
		if err := e.runEpisode(ctx); err != nil {
			return e.State, err
		}
	}

	if err := e.fire(Completed); err != nil {
		return e.State, err
	}
	return e.State, nil
}

func (e *Engine) runEpisode(ctx context.Context) error {
	e.State.Episode++
	e.State.Step = 0
	e.State.Steps = 0
	e.terminateEpisode = false

	if e.hooks != nil {
		if err := e.hooks.OnEpisodeStart(e); err != nil {
			return fmt.Errorf("episode %d: on episode start: %w", e.State.Episode, err)
		}
	}
	if err := e.fire(EpisodeStarted); err != nil {
		return err
	}

	for step := 0; step < e.State.EpisodeLength; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.State.Iteration++
		e.State.Step = step
		if err := e.fire(StepStarted); err != nil {
			return err
		}
		if e.hooks != nil {
			if err := e.hooks.OnStep(e, step); err != nil {
				return fmt.Errorf("episode %d step %d: %w", e.State.Episode, step, err)
			}
		}
		e.State.Steps = step + 1
		if err := e.fire(StepCompleted); err != nil {
			return err
		}

		if e.terminateEpisode || e.shouldTerminate {
			break
		}
	}

	if e.hooks != nil {
		if err := e.hooks.OnEpisodeEnd(e); err != nil {
			return fmt.Errorf("episode %d: on episode end: %w", e.State.Episode, err)
		}
	}
	return e.fire(EpisodeCompleted)
}
