package explore

import (
	"context"

	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/types"
)

// Backtracker walks from a seed one mutation at a time and only moves to a
// mutated document once the target has accepted it.
type Backtracker struct {
	executor Executor
	engine   *mutate.Engine
	rounds   int
}

func NewBacktracker(executor Executor, engine *mutate.Engine, rounds int) *Backtracker {
	return &Backtracker{executor: executor, engine: engine, rounds: rounds}
}

type WalkReport struct {
	Executed int
	Accepted int
	Rejected int
	// KnownGood[k] is the base after round k. Each entry is the seed or a
	// document the target accepted in an earlier round.
	KnownGood   []types.Document
	Interrupted bool
}

// Final returns the last known-good document, or seed if no round ran.
func (r WalkReport) Final(seed types.Document) types.Document {
	if len(r.KnownGood) == 0 {
		return seed
	}
	return r.KnownGood[len(r.KnownGood)-1]
}

func (b *Backtracker) Run(ctx context.Context, seed types.Document) WalkReport {
	report := WalkReport{KnownGood: make([]types.Document, 0, max(b.rounds, 0))}
	knownGood := seed

	for range b.rounds {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		candidate, _ := b.engine.ApplyOne(knownGood)
		report.Executed++
		if res := b.executor.Execute(ctx, candidate); res.Succeeded() {
			knownGood = candidate
			report.Accepted++
		} else {
			report.Rejected++
		}
		report.KnownGood = append(report.KnownGood, knownGood)
	}
	return report
}
