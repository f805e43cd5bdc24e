package trainer

import (
	"fmt"

	amath "github.com/sw965/actorcritic/math"
)

type Config struct {
	Gamma       float64
	Seed        int64
	Render      bool
	LogInterval int
	MaxEpisodes int

	EnvID        string
	LearningRate float64
	Hidden       int
	Optimizer    string

	// EpisodeLength caps the steps of one episode independently of the
	// environment's own time limit.
	EpisodeLength        int
	InitialRunningReward float64
	Smoothing            float64
	Eps                  float64

	CheckpointPath string
	ResumePath     string
	PlotPath       string
}

func DefaultConfig() Config {
	return Config{
		Gamma:                0.99,
		Seed:                 543,
		LogInterval:          10,
		MaxEpisodes:          1_000_000,
		EnvID:                "CartPole-v1",
		LearningRate:         3e-2,
		Hidden:               128,
		Optimizer:            "adam",
		EpisodeLength:        10_000,
		InitialRunningReward: 10,
		Smoothing:            0.01,
		Eps:                  amath.Float32Epsilon,
	}
}

func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("log interval must be positive, got %d", c.LogInterval)
	}
	if c.MaxEpisodes <= 0 {
		return fmt.Errorf("max episodes must be positive, got %d", c.MaxEpisodes)
	}
	if c.EnvID == "" {
		return fmt.Errorf("env id must not be empty")
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %v", c.LearningRate)
	}
	if c.Hidden <= 0 {
		return fmt.Errorf("hidden size must be positive, got %d", c.Hidden)
	}
	if c.EpisodeLength <= 0 {
		return fmt.Errorf("episode length must be positive, got %d", c.EpisodeLength)
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		return fmt.Errorf("smoothing must be in (0, 1], got %v", c.Smoothing)
	}
	if c.Eps <= 0 {
		return fmt.Errorf("eps must be positive, got %v", c.Eps)
	}
	return nil
}
