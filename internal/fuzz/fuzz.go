package fuzz

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"htmlfuzz/config"
	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/types"
	"htmlfuzz/pkg/telemetry"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownStrategy = errors.New("strategy not registered")

type FuzzRunner struct {
	logger        *zap.Logger
	strategyMap   map[string]Strategy
	tracerFactory *telemetry.TracerFactory
	phases        []string
	parallelism   int
	target        string
}

type FuzzRunnerParams struct {
	fx.In
	Logger        *zap.Logger
	AppConfig     *config.AppConfig
	Strategies    []Strategy `group:"strategies"`
	TracerFactory *telemetry.TracerFactory
}

func NewFuzzRunner(params FuzzRunnerParams) *FuzzRunner {
	strategyMap := make(map[string]Strategy)
	for _, strategy := range params.Strategies {
		strategyV := reflect.ValueOf(strategy)
		if strategy == nil || (strategyV.Kind() == reflect.Ptr && strategyV.IsNil()) {
			continue // skip nil strategy
		}
		strategyMap[strategy.Name()] = strategy
		params.Logger.Debug("strategy registered", zap.String("phase", strategy.Name()))
	}

	parallelism := params.AppConfig.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &FuzzRunner{
		logger:        params.Logger,
		strategyMap:   strategyMap,
		tracerFactory: params.TracerFactory,
		phases:        params.AppConfig.ExplorerConfig.Phases,
		parallelism:   parallelism,
		target:        params.AppConfig.Target,
	}
}

// Run is one fuzzing run.
type Run struct {
	ID         string
	RandomSeed uint64
	Seeds      []types.Seed
}

// RunPhases runs every configured phase over all seeds, in order. It returns
// ctx.Err() when the run was interrupted. The campaign span ends in error
// when any test case failed.
func (f *FuzzRunner) RunPhases(ctx context.Context, run Run) error {
	for _, phase := range f.phases {
		if _, ok := f.strategyMap[phase]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStrategy, phase)
		}
	}

	campaignTracer := f.tracerFactory.NewTracer(ctx, "htmlfuzz campaign").
		WithAttributes(
			telemetry.EmptySpanAttributes().
				WithRunID(run.ID).
				WithTarget(f.target).
				WithExtraAttribute("random_seed", fmt.Sprint(run.RandomSeed)).
				WithExtraAttribute("seed_count", len(run.Seeds)),
		)
	campaignTracer.Start()
	ctx = telemetry.WithTracer(ctx, campaignTracer)

	var failures atomic.Int64
	defer func() {
		switch n := failures.Load(); {
		case n > 0:
			campaignTracer.SetStatus(codes.Error, fmt.Sprintf("%d failing test cases", n))
		case ctx.Err() == nil:
			campaignTracer.SetStatus(codes.Ok, "")
		}
		campaignTracer.End()
	}()

	for phaseIdx, phase := range f.phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.logger.Info(fmt.Sprintf("=== Phase %d: running all seeds with %s strategy ===", phaseIdx+1, phase))
		if err := f.runPhase(ctx, run, phaseIdx, f.strategyMap[phase], &failures); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (f *FuzzRunner) runPhase(ctx context.Context, run Run, phaseIdx int, strategy Strategy, failures *atomic.Int64) error {
	phaseTracer := telemetry.FromContext(ctx).Spawn(fmt.Sprintf("phase %s", strategy.Name())).
		WithAttributes(telemetry.EmptySpanAttributes().WithPhase(strategy.Name()))
	phaseTracer.Start()
	defer phaseTracer.End()
	ctx = telemetry.WithTracer(ctx, phaseTracer)

	var g errgroup.Group
	g.SetLimit(f.parallelism)
	for seedIdx, seed := range run.Seeds {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report := f.runSeed(ctx, run, phaseIdx, seedIdx, seed, strategy)
			failures.Add(int64(report.Failures))
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (f *FuzzRunner) runSeed(ctx context.Context, run Run, phaseIdx, seedIdx int, seed types.Seed, strategy Strategy) SeedReport {
	if ctx.Err() != nil {
		return SeedReport{Interrupted: true}
	}
	logger := f.logger.With(
		zap.String("phase", strategy.Name()),
		zap.String("seed", seed.Name),
	)
	logger.Info(fmt.Sprintf("testing seed %d/%d", seedIdx+1, len(run.Seeds)))

	seedTracer := telemetry.FromContext(ctx).Spawn(fmt.Sprintf("seed %s", seed.Name)).
		WithAttributes(telemetry.EmptySpanAttributes().WithSeedName(seed.Name))
	seedTracer.Start()
	defer seedTracer.End()

	engine := mutate.NewSeededEngine(run.RandomSeed, SeedStream(phaseIdx, seedIdx))
	report := strategy.Explore(telemetry.WithTracer(ctx, seedTracer), seed, engine)

	seedTracer.WithAttributes(telemetry.EmptySpanAttributes().WithExtraAttributes(map[string]any{
		"executed":    report.Executed,
		"failures":    report.Failures,
		"interrupted": report.Interrupted,
	}))
	logger.Info("seed done",
		zap.Int("executed", report.Executed),
		zap.Int("failures", report.Failures),
		zap.Bool("interrupted", report.Interrupted))
	return report
}

// SeedStream is the random stream id of one seed in one phase, so a seed's
// mutations do not depend on how seeds are scheduled.
func SeedStream(phaseIdx, seedIdx int) uint64 {
	return uint64(phaseIdx)<<32 | uint64(uint32(seedIdx))
}
