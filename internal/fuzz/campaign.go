package fuzz

import (
	"context"
	"errors"
	"time"

	"htmlfuzz/config"
	"htmlfuzz/internal/corpus"
	"htmlfuzz/internal/results"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Campaign runs the fuzzer once for the lifetime of the app: seeds are loaded
// on start, the phases run in the background, and the app shuts down with
// exit code 1 if any test case failed.
type Campaign struct {
	logger     *zap.Logger
	runner     *FuzzRunner
	corpus     *corpus.CorpusGrabber
	runState   *results.RunState
	reporter   *results.Reporter
	shutdowner fx.Shutdowner
	randomSeed uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type CampaignParams struct {
	fx.In
	Lc         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	AppConfig  *config.AppConfig
	Runner     *FuzzRunner
	Corpus     *corpus.CorpusGrabber
	RunState   *results.RunState
	Reporter   *results.Reporter
}

func NewCampaign(p CampaignParams) *Campaign {
	c := &Campaign{
		logger:     p.Logger.Named("campaign"),
		runner:     p.Runner,
		corpus:     p.Corpus,
		runState:   p.RunState,
		reporter:   p.Reporter,
		shutdowner: p.Shutdowner,
		randomSeed: p.AppConfig.RandomSeed,
		done:       make(chan struct{}),
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			c.logger.Debug("stopping campaign")
			c.stop()
			return nil
		},
	})
	return c
}

func (c *Campaign) start(ctx context.Context) error {
	seeds, err := c.corpus.GrabSeeds(ctx)
	if err != nil {
		c.logger.Error("failed to load seeds", zap.Error(err))
		return err
	}

	run := Run{
		ID:         uuid.New().String(),
		RandomSeed: c.randomSeed,
		Seeds:      seeds,
	}
	if run.RandomSeed == 0 {
		run.RandomSeed = uint64(time.Now().UnixNano())
	}
	c.logger.Info("starting campaign",
		zap.String("run_id", run.ID),
		zap.Uint64("random_seed", run.RandomSeed),
		zap.Int("seed_count", len(seeds)))

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(runCtx, run)
	return nil
}

func (c *Campaign) run(ctx context.Context, run Run) {
	defer close(c.done)

	err := c.runner.RunPhases(ctx, run)
	switch {
	case errors.Is(err, context.Canceled):
		c.logger.Warn("campaign interrupted", zap.String("run_id", run.ID))
	case err != nil:
		c.logger.Error("campaign aborted", zap.String("run_id", run.ID), zap.Error(err))
	default:
		c.logger.Info("campaign finished", zap.String("run_id", run.ID))
	}

	summary := c.runState.Snapshot()
	if err := summary.Check(); err != nil {
		c.logger.Error("inconsistent run state", zap.Error(err))
	}
	c.reporter.Print(summary)

	exitCode := summary.ExitCode()
	if err != nil && !errors.Is(err, context.Canceled) {
		exitCode = 1
	}
	if err := c.shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
		c.logger.Debug("shutdown already in progress", zap.Error(err))
	}
}

func (c *Campaign) stop() {
	if c.cancel == nil {
		return // never started
	}
	c.cancel()
	<-c.done
}

// Done is closed once the summary has been printed.
func (c *Campaign) Done() <-chan struct{} {
	return c.done
}
