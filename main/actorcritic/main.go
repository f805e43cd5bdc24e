// Command actorcritic trains an actor-critic agent on CartPole.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/logrusorgru/aurora"
	"github.com/sw965/actorcritic/gym"
	"github.com/sw965/actorcritic/gym/cartpole"
	"github.com/sw965/actorcritic/report"
	"github.com/sw965/actorcritic/trainer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := trainer.DefaultConfig()
	var noColor bool

	fs := flag.NewFlagSet("actorcritic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&cfg.Gamma, "gamma", cfg.Gamma, "discount factor")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.BoolVar(&cfg.Render, "render", cfg.Render, "render the environment")
	fs.IntVar(&cfg.LogInterval, "log-interval", cfg.LogInterval, "interval between training status logs")
	fs.IntVar(&cfg.MaxEpisodes, "max-episodes", cfg.MaxEpisodes, "number of episodes for the training")
	fs.StringVar(&cfg.EnvID, "env", cfg.EnvID, "environment id")
	fs.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "learning rate")
	fs.IntVar(&cfg.Hidden, "hidden", cfg.Hidden, "hidden layer width")
	fs.StringVar(&cfg.Optimizer, "optimizer", cfg.Optimizer, "optimizer: adam or momentum")
	fs.IntVar(&cfg.EpisodeLength, "episode-length", cfg.EpisodeLength, "maximum steps per episode")
	fs.Float64Var(&cfg.InitialRunningReward, "initial-running-reward", cfg.InitialRunningReward, "running reward before the first episode")
	fs.Float64Var(&cfg.Smoothing, "smoothing", cfg.Smoothing, "weight of the last episode in the running reward")
	fs.Float64Var(&cfg.Eps, "eps", cfg.Eps, "stability constant of return normalization")
	fs.StringVar(&cfg.CheckpointPath, "checkpoint", cfg.CheckpointPath, "write the trained network to this JSON file")
	fs.StringVar(&cfg.ResumePath, "resume", cfg.ResumePath, "load the network from this JSON file before training")
	fs.StringVar(&cfg.PlotPath, "plot", cfg.PlotPath, "write an HTML chart of the training history to this file")
	fs.BoolVar(&noColor, "no-color", false, "disable colored output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	env, err := gym.Make(cfg.EnvID)
	if err != nil {
		return err
	}

	au := aurora.NewAurora(!noColor)
	if cp, ok := env.(*cartpole.Env); ok {
		cp.Aurora = au
	}

	logger := log.New(stdout, "", log.LstdFlags)
	t, err := trainer.New(cfg, env, logger)
	if err != nil {
		return err
	}
	t.Aurora = au
	t.RenderOutput = stdout
	logger.Printf("%s: %d parameters, %s optimizer, seed %d",
		cfg.EnvID, t.Agent.Network.Parameters().N(), cfg.Optimizer, cfg.Seed)

	result, runErr := t.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	logger.Printf("episodes=%d iterations=%d last_length=%d running_reward=%.2f solved=%v",
		result.Episodes, result.Iterations, result.LastLength, result.RunningReward, result.Solved)
	if !result.Solved && runErr == nil {
		logger.Print(au.Yellow(fmt.Sprintf("stopped after %d episodes without reaching the reward threshold %v",
			result.Episodes, env.Spec().RewardThreshold)))
	}

	if cfg.PlotPath != "" {
		h := result.History
		err := report.WriteFile(cfg.PlotPath, cfg.EnvID+" training",
			report.IntSeries("episode length", h.Lengths),
			report.Series{Name: "running reward", Values: h.RunningRewards},
			report.Series{Name: "policy loss", Values: h.PolicyLosses},
			report.Series{Name: "value loss", Values: h.ValueLosses},
		)
		if err != nil {
			return err
		}
		logger.Printf("wrote %s", cfg.PlotPath)
	}
	return nil
}
