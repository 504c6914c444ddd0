package explore

import (
	"context"

	"htmlfuzz/config"
	"htmlfuzz/internal/fuzz"
	"htmlfuzz/internal/harness"
	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/types"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type StrategyParams struct {
	fx.In
	Harness   *harness.Harness
	AppConfig *config.AppConfig
	Logger    *zap.Logger
}

// BatchStrategy is the non-backtracking phase.
type BatchStrategy struct {
	executor  Executor
	batchSize int
	maxChain  int
	logger    *zap.Logger
}

func NewBatchStrategy(p StrategyParams) *BatchStrategy {
	return &BatchStrategy{
		executor:  p.Harness,
		batchSize: p.AppConfig.ExplorerConfig.BatchSize,
		maxChain:  p.AppConfig.ExplorerConfig.MaxChain,
		logger:    p.Logger.Named(config.PhaseBatch),
	}
}

func (s *BatchStrategy) Name() string { return config.PhaseBatch }

func (s *BatchStrategy) Explore(ctx context.Context, seed types.Seed, engine *mutate.Engine) fuzz.SeedReport {
	candidates := GenerateBatch(seed.HTML, engine, s.batchSize, s.maxChain)
	s.logger.Debug("batch generated",
		zap.String("seed", seed.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("dropped", s.batchSize-len(candidates)))

	report := RunBatch(ctx, s.executor, seed.HTML, candidates)
	switch {
	case report.SeedFailed:
		s.logger.Warn("seed rejected by target, skipping its batch", zap.String("seed", seed.Name))
	case report.FailedAt >= 0:
		s.logger.Info("batch stopped at first failure",
			zap.String("seed", seed.Name),
			zap.Int("candidate", report.FailedAt+1),
			zap.Int("of", len(candidates)))
	}

	failures := 0
	if report.Failed() {
		failures = 1
	}
	return fuzz.SeedReport{Executed: report.Executed, Failures: failures, Interrupted: report.Interrupted}
}

// WalkStrategy is the backtracking phase.
type WalkStrategy struct {
	executor Executor
	rounds   int
	logger   *zap.Logger
}

func NewWalkStrategy(p StrategyParams) *WalkStrategy {
	return &WalkStrategy{
		executor: p.Harness,
		rounds:   p.AppConfig.ExplorerConfig.Rounds,
		logger:   p.Logger.Named(config.PhaseWalk),
	}
}

func (s *WalkStrategy) Name() string { return config.PhaseWalk }

func (s *WalkStrategy) Explore(ctx context.Context, seed types.Seed, engine *mutate.Engine) fuzz.SeedReport {
	report := NewBacktracker(s.executor, engine, s.rounds).Run(ctx, seed.HTML)
	s.logger.Debug("walk finished",
		zap.String("seed", seed.Name),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("final_size", len(report.Final(seed.HTML))))
	return fuzz.SeedReport{Executed: report.Executed, Failures: report.Rejected, Interrupted: report.Interrupted}
}

var StrategiesModule = fx.Options(
	fx.Provide(fx.Annotate(NewBatchStrategy, fx.As(new(fuzz.Strategy)), fx.ResultTags(`group:"strategies"`))),
	fx.Provide(fx.Annotate(NewWalkStrategy, fx.As(new(fuzz.Strategy)), fx.ResultTags(`group:"strategies"`))),
)
