package engine_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/sw965/actorcritic/engine"
)

type recorder struct {
	calls      []string
	iterations []int
	endAt      int
	stepErr    error
}

func (r *recorder) OnStart(e *engine.Engine) error {
	r.calls = append(r.calls, "start")
	return nil
}

func (r *recorder) OnEpisodeStart(e *engine.Engine) error {
	r.calls = append(r.calls, fmt.Sprintf("episode %d", e.State.Episode))
	return nil
}

func (r *recorder) OnStep(e *engine.Engine, step int) error {
	if r.stepErr != nil {
		return r.stepErr
	}
	r.iterations = append(r.iterations, e.State.Iteration)
	if r.endAt > 0 && step+1 == r.endAt {
		e.TerminateEpisode()
	}
	return nil
}

func (r *recorder) OnEpisodeEnd(e *engine.Engine) error {
	r.calls = append(r.calls, fmt.Sprintf("end %d after %d", e.State.Episode, e.State.Steps))
	return nil
}

func TestRunOrder(t *testing.T) {
	r := &recorder{endAt: 2}
	e := engine.New(r)
	var events []string
	e.On(engine.Started, func(*engine.Engine) error {
		events = append(events, "started")
		return nil
	})
	e.On(engine.EpisodeCompleted, func(e *engine.Engine) error {
		events = append(events, fmt.Sprintf("completed %d", e.State.Episode))
		return nil
	})
	e.On(engine.Completed, func(*engine.Engine) error {
		events = append(events, "done")
		return nil
	})

	state, err := e.Run(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	expectedCalls := []string{"start", "episode 1", "end 1 after 2", "episode 2", "end 2 after 2", "episode 3", "end 3 after 2"}
	if !slices.Equal(r.calls, expectedCalls) {
		t.Errorf("expected %v, got %v", expectedCalls, r.calls)
	}
	expectedEvents := []string{"started", "completed 1", "completed 2", "completed 3", "done"}
	if !slices.Equal(events, expectedEvents) {
		t.Errorf("expected %v, got %v", expectedEvents, events)
	}
	if !slices.Equal(r.iterations, []int{1, 2, 3, 4, 5, 6}) {
		t.Errorf("iteration must grow monotonically across episodes, got %v", r.iterations)
	}
	if state.Episode != 3 || state.Iteration != 6 {
		t.Errorf("unexpected final state %+v", state)
	}
}

func TestEpisodeLengthCap(t *testing.T) {
	r := &recorder{}
	e := engine.New(r)
	state, err := e.Run(context.Background(), 4, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Steps != 4 || state.Step != 3 {
		t.Errorf("expected a full episode of 4 steps, got %+v", state)
	}
}

func TestTerminate(t *testing.T) {
	r := &recorder{endAt: 1}
	e := engine.New(r)
	e.On(engine.EpisodeCompleted, func(e *engine.Engine) error {
		if e.State.Episode == 2 {
			e.Terminate()
		}
		return nil
	})

	state, err := e.Run(context.Background(), 10, 100)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Episode != 2 {
		t.Errorf("expected the run to stop after episode 2, got %d", state.Episode)
	}
	if !e.ShouldTerminate() {
		t.Errorf("expected ShouldTerminate to report true")
	}
}

func TestEvery(t *testing.T) {
	r := &recorder{endAt: 3}
	e := engine.New(r)
	var episodes, iterations []int
	e.On(engine.EpisodeCompleted, func(e *engine.Engine) error {
		episodes = append(episodes, e.State.Episode)
		return nil
	}, engine.Every(2))
	e.On(engine.StepCompleted, func(e *engine.Engine) error {
		iterations = append(iterations, e.State.Iteration)
		return nil
	}, engine.Every(4))

	if _, err := e.Run(context.Background(), 10, 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !slices.Equal(episodes, []int{2, 4}) {
		t.Errorf("expected episodes [2 4], got %v", episodes)
	}
	if !slices.Equal(iterations, []int{4, 8, 12}) {
		t.Errorf("expected iterations [4 8 12], got %v", iterations)
	}
}

func TestErrorsAbort(t *testing.T) {
	errBoom := errors.New("boom")

	r := &recorder{stepErr: errBoom}
	if _, err := engine.New(r).Run(context.Background(), 3, 3); !errors.Is(err, errBoom) {
		t.Errorf("expected hook error, got %v", err)
	}

	e := engine.New(&recorder{endAt: 1})
	calls := 0
	e.On(engine.EpisodeStarted, func(*engine.Engine) error {
		calls++
		return errBoom
	})
	state, err := e.Run(context.Background(), 3, 3)
	if !errors.Is(err, errBoom) {
		t.Errorf("expected handler error, got %v", err)
	}
	if calls != 1 || state.Episode != 1 {
		t.Errorf("expected the run to abort in episode 1, got %d calls, %+v", calls, state)
	}
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := engine.New(nil)
	e.On(engine.StepCompleted, func(e *engine.Engine) error {
		if e.State.Iteration == 3 {
			cancel()
		}
		return nil
	})

	state, err := e.Run(ctx, 10, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if state.Iteration != 3 {
		t.Errorf("expected the run to stop at iteration 3, got %d", state.Iteration)
	}
}

func TestInvalidArguments(t *testing.T) {
	e := engine.New(nil)
	if _, err := e.Run(context.Background(), 0, 1); err == nil {
		t.Errorf("expected an error for a zero episode length")
	}
	if _, err := e.Run(context.Background(), 1, 0); err == nil {
		t.Errorf("expected an error for zero episodes")
	}
}
