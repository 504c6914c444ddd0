package corpus

import (
	"errors"

	"htmlfuzz/internal/types"

	"go.uber.org/fx"
)

var ErrNoSeeds = errors.New("no seeds available")

type Grabber interface {
	// GrabSeeds returns the seeds this source knows about. A source that is
	// reachable but empty returns ErrNoSeeds so the next source is tried.
	GrabSeeds() ([]types.Seed, error)
}

var CorpusGrabbersModule = fx.Options(
	fx.Provide(NewCorpusGrabber),
	fx.Provide(NewFileSeedGrabber),
	fx.Provide(NewBuiltinSeedGrabber),
)
