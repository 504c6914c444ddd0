package corpus

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"htmlfuzz/internal/types"
	"htmlfuzz/pkg/telemetry"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// CorpusGrabber asks each source in turn and keeps the first non-empty
// answer.
type CorpusGrabber struct {
	grabbers []Grabber
	logger   *zap.Logger
}

type CorpusGrabberParams struct {
	fx.In

	Logger             *zap.Logger
	FileSeedGrabber    *FileSeedGrabber `optional:"true"`
	BuiltinSeedGrabber *BuiltinSeedGrabber
}

func NewCorpusGrabber(params CorpusGrabberParams) *CorpusGrabber {
	return NewCorpusGrabberFrom(params.Logger, params.FileSeedGrabber, params.BuiltinSeedGrabber)
}

func NewCorpusGrabberFrom(logger *zap.Logger, grabbers ...Grabber) *CorpusGrabber {
	return &CorpusGrabber{
		grabbers: grabbers,
		logger:   logger.Named("corpus"),
	}
}

// GrabSeeds returns the seeds of the first source that has any. Only
// ErrNoSeeds moves on to the next source; any other error is returned since
// a broken corpus file should not silently fall back to the defaults.
func (s *CorpusGrabber) GrabSeeds(ctx context.Context) ([]types.Seed, error) {
	tracer := telemetry.FromContext(ctx)
	corpusTracer := tracer.Spawn("loading corpus")
	corpusTracer.Start()
	defer corpusTracer.End()

	for _, grabber := range s.grabbers {
		if v := reflect.ValueOf(grabber); grabber == nil || (v.Kind() == reflect.Pointer && v.IsNil()) {
			continue // source disabled
		}
		seeds, err := s.grabSeedsFrom(corpusTracer, grabber)
		if errors.Is(err, ErrNoSeeds) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.inspect(seeds)
		corpusTracer.WithAttributes(
			telemetry.EmptySpanAttributes().WithExtraAttribute("corpus_size", len(seeds)),
		)
		return seeds, nil
	}
	return nil, ErrNoSeeds
}

func (s *CorpusGrabber) grabSeedsFrom(tracer telemetry.Tracer, grabber Grabber) ([]types.Seed, error) {
	name := grabberName(grabber)
	grabberTracer := tracer.Spawn(fmt.Sprintf("grabbing seeds from %s", name))
	grabberTracer.Start()
	defer grabberTracer.End()

	seeds, err := grabber.GrabSeeds()
	if err == nil && len(seeds) == 0 {
		err = ErrNoSeeds
	}
	if err != nil {
		s.logger.Warn("failed to grab seeds", zap.String("grabber", name), zap.Error(err))
		grabberTracer.AddEvent("failed_to_grab_seeds", telemetry.EventAttributes{})
		return nil, err
	}

	s.logger.Info("grabbed seeds", zap.String("grabber", name), zap.Int("seed_count", len(seeds)))
	return seeds, nil
}

func (s *CorpusGrabber) inspect(seeds []types.Seed) {
	for _, seed := range seeds {
		info, err := Inspect(seed.HTML)
		if err != nil {
			s.logger.Warn("failed to tokenize seed", zap.String("seed", seed.Name), zap.Error(err))
			continue
		}
		s.logger.Debug("seed inspected",
			zap.String("seed", seed.Name),
			zap.Int("elements", info.Elements),
			zap.Bool("has_body", info.HasBody))
		if !info.Anchored {
			s.logger.Warn("seed has no <body> insertion point, mutations will leave it unchanged",
				zap.String("seed", seed.Name))
		}
	}
}

func grabberName(g Grabber) string {
	if s, ok := g.(fmt.Stringer); ok {
		return s.String()
	}
	t := reflect.TypeOf(g)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
