package fuzz

import (
	"context"

	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/types"
)

// Strategy describes one exploration phase over a single seed.
type Strategy interface {
	// Name is the phase name this strategy is registered under.
	Name() string

	// Explore drives the target from seed until the strategy is done or ctx
	// is cancelled. engine is owned by the call and must not be shared.
	//
	// Per-input failures are recorded by the executor, so the report only
	// summarizes what happened to this seed.
	Explore(ctx context.Context, seed types.Seed, engine *mutate.Engine) SeedReport
}

type SeedReport struct {
	Executed    int
	Failures    int
	Interrupted bool
}
