package explore

import (
	"context"

	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/types"
)

// Executor runs one document against the target.
type Executor interface {
	Execute(ctx context.Context, doc types.Document) types.ExecutionResult
}

// GenerateBatch builds up to batchSize independent candidates, each the seed
// with 1..maxChain chained mutations. Candidates identical to the seed are
// dropped, so the batch can be shorter than batchSize.
func GenerateBatch(seed types.Document, engine *mutate.Engine, batchSize, maxChain int) []types.Document {
	if maxChain < 1 {
		maxChain = 1
	}
	candidates := make([]types.Document, 0, max(batchSize, 0))
	for range batchSize {
		count := 1 + engine.IntN(maxChain)
		candidate := engine.Apply(seed, count)
		if candidate != seed {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

type BatchReport struct {
	Executed    int
	SeedFailed  bool
	FailedAt    int // index of the first failing candidate, -1 if none failed
	Interrupted bool
}

func (r BatchReport) Failed() bool {
	return r.SeedFailed || r.FailedAt >= 0
}

// RunBatch executes the seed, then the candidates in order, and stops at the
// first failure. A failing seed means no candidate is tried.
func RunBatch(ctx context.Context, executor Executor, seed types.Document, candidates []types.Document) BatchReport {
	report := BatchReport{FailedAt: -1}
	if ctx.Err() != nil {
		report.Interrupted = true
		return report
	}

	report.Executed++
	if res := executor.Execute(ctx, seed); !res.Succeeded() {
		report.SeedFailed = true
		return report
	}

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			report.Interrupted = true
			return report
		}
		report.Executed++
		if res := executor.Execute(ctx, candidate); !res.Succeeded() {
			report.FailedAt = i
			return report
		}
	}
	return report
}
