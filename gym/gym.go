// Package gym defines the environment contract used by the trainer and a
// registry of environment constructors keyed by id.
package gym

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

var ErrUnknownEnv = errors.New("unknown environment")

type Spec struct {
	ID              string
	MaxEpisodeSteps int
	RewardThreshold float64
}

type Env interface {
	Spec() Spec
	Seed(seed int64)
	Reset() []float64
	// Step returns the next observation, the reward and whether the episode
	// has ended.
	Step(action int) ([]float64, float64, bool, error)
	Render(w io.Writer) error
	ObservationSize() int
	ActionSize() int
}

type Constructor func() Env

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register makes an environment available to Make. It panics on a duplicate
// id, like database/sql drivers.
func Register(id string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()

	if ctor == nil {
		panic("gym: Register constructor is nil")
	}
	if _, dup := registry[id]; dup {
		panic("gym: Register called twice for " + id)
	}
	registry[id] = ctor
}

func Make(id string) (Env, error) {
	mu.RLock()
	ctor, ok := registry[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q: import its package for side effects (e.g. _ \"github.com/sw965/actorcritic/gym/cartpole\"); registered: %v", ErrUnknownEnv, id, IDs())
	}
	return ctor(), nil
}

func IDs() []string {
	mu.RLock()
	defer mu.RUnlock()

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
