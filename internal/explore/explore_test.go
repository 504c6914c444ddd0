package explore

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/results"
	"htmlfuzz/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const seedDoc = types.Document("<html><body><p>Hi</p></body></html>")

// fakeExecutor stands in for the harness. It records into a RunState the
// same way the real one does.
type fakeExecutor struct {
	mu       sync.Mutex
	state    *results.RunState
	fail     func(call int, doc types.Document) bool
	output   string
	executed []types.Document
	passed   map[types.Document]bool
	onCall   func(call int)
}

func newFakeExecutor(fail func(call int, doc types.Document) bool) *fakeExecutor {
	return &fakeExecutor{
		state:  results.NewRunState(),
		fail:   fail,
		passed: make(map[types.Document]bool),
	}
}

func (f *fakeExecutor) Execute(ctx context.Context, doc types.Document) types.ExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.executed)
	f.executed = append(f.executed, doc)
	if f.onCall != nil {
		f.onCall(call)
	}

	res := types.ExecutionResult{Outcome: types.OutcomePassed}
	if f.fail != nil && f.fail(call, doc) {
		res = types.ExecutionResult{ExitCode: 1, Outcome: types.OutcomeExited, Output: f.output}
	} else {
		f.passed[doc] = true
	}
	f.state.Record(res)
	return res
}

func neverFail(int, types.Document) bool  { return false }
func alwaysFail(int, types.Document) bool { return true }

func TestGenerateBatchMutatesOriginalSeed(t *testing.T) {
	engine := mutate.NewSeededEngine(42, 0)
	candidates := GenerateBatch(seedDoc, engine, 50, 3)

	require.Len(t, candidates, 50)
	for _, c := range candidates {
		assert.NotEqual(t, seedDoc, c)
		assert.True(t, strings.HasPrefix(string(c), "<html><body>"))
		assert.True(t, strings.HasSuffix(string(c), "<p>Hi</p></body></html>"))
	}
}

func TestGenerateBatchChainLengthIsBounded(t *testing.T) {
	// one <mark> per applied mutation
	engine := mutate.NewEngine([]mutate.Mutator{mutate.AddElement{Tags: []string{"mark"}}}, rand.New(rand.NewPCG(7, 7)))
	candidates := GenerateBatch(seedDoc, engine, 200, 3)

	seenCounts := make(map[int]bool)
	for _, c := range candidates {
		n := strings.Count(string(c), "<mark>")
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 3)
		seenCounts[n] = true
	}
	assert.Len(t, seenCounts, 3)
}

func TestGenerateBatchDropsUnchangedCandidates(t *testing.T) {
	noAnchor := types.Document("<html><p>no body here</p></html>")
	candidates := GenerateBatch(noAnchor, mutate.NewSeededEngine(1, 1), 50, 3)
	assert.Empty(t, candidates)

	assert.Empty(t, GenerateBatch(seedDoc, mutate.NewSeededEngine(1, 1), 0, 3))
}

func TestRunBatchAllPass(t *testing.T) {
	exec := newFakeExecutor(neverFail)
	candidates := GenerateBatch(seedDoc, mutate.NewSeededEngine(3, 3), 50, 3)
	require.Len(t, candidates, 50)

	report := RunBatch(context.Background(), exec, seedDoc, candidates)

	assert.Equal(t, 51, report.Executed)
	assert.False(t, report.Failed())
	assert.Equal(t, -1, report.FailedAt)

	summary := exec.state.Snapshot()
	assert.Equal(t, 51, summary.TotalTestsRun)
	assert.Equal(t, 0, summary.FailedTests)
	assert.Equal(t, seedDoc, exec.executed[0])
}

func TestRunBatchFailingSeedStopsImmediately(t *testing.T) {
	exec := newFakeExecutor(alwaysFail)
	exec.output = "null pointer"
	candidates := GenerateBatch(seedDoc, mutate.NewSeededEngine(3, 3), 50, 3)

	report := RunBatch(context.Background(), exec, seedDoc, candidates)

	assert.Equal(t, 1, report.Executed)
	assert.True(t, report.SeedFailed)

	summary := exec.state.Snapshot()
	assert.Equal(t, 1, summary.TotalTestsRun)
	assert.Equal(t, 1, summary.FailedTests)
	assert.Equal(t, []string{"null pointer"}, summary.UniqueErrors)
}

func TestRunBatchStopsAtFirstFailingCandidate(t *testing.T) {
	// call 0 is the seed; call 4 is candidate index 3
	exec := newFakeExecutor(func(call int, _ types.Document) bool { return call >= 4 })
	candidates := GenerateBatch(seedDoc, mutate.NewSeededEngine(5, 5), 10, 3)
	require.Len(t, candidates, 10)

	report := RunBatch(context.Background(), exec, seedDoc, candidates)

	assert.Equal(t, 5, report.Executed)
	assert.Equal(t, 3, report.FailedAt)
	assert.Equal(t, candidates[3], exec.executed[4])
	assert.Equal(t, 1, exec.state.Snapshot().FailedTests)
}

func TestRunBatchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := newFakeExecutor(neverFail)

	report := RunBatch(ctx, exec, seedDoc, []types.Document{"a", "b"})
	assert.True(t, report.Interrupted)
	assert.Zero(t, report.Executed)

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	exec = newFakeExecutor(neverFail)
	exec.onCall = func(call int) {
		if call == 2 {
			cancel()
		}
	}
	report = RunBatch(ctx, exec, seedDoc, []types.Document{"a", "b", "c", "d"})
	assert.True(t, report.Interrupted)
	assert.Equal(t, 3, report.Executed)
}

func TestBacktrackerNeverRegresses(t *testing.T) {
	rejected := func(call int) bool { return call%3 == 1 }
	exec := newFakeExecutor(func(call int, _ types.Document) bool { return rejected(call) })
	report := NewBacktracker(exec, mutate.NewSeededEngine(11, 2), 50).Run(context.Background(), seedDoc)

	require.Len(t, report.KnownGood, 50)
	assert.Equal(t, 50, report.Executed)
	assert.Equal(t, 50, report.Accepted+report.Rejected)
	assert.Equal(t, 17, report.Rejected)

	prev := seedDoc
	for k, base := range report.KnownGood {
		assert.True(t, base == seedDoc || exec.passed[base], "round %d base was never accepted", k)
		if !rejected(k) {
			assert.Equal(t, exec.executed[k], base, "round %d accepted candidate must become the base", k)
		} else {
			assert.Equal(t, prev, base, "round %d rejected candidate must not move the base", k)
		}
		prev = base
	}
}

func TestBacktrackerMutatesFromKnownGood(t *testing.T) {
	exec := newFakeExecutor(alwaysFail)
	report := NewBacktracker(exec, mutate.NewSeededEngine(9, 9), 20).Run(context.Background(), seedDoc)

	assert.Equal(t, 20, report.Rejected)
	assert.Equal(t, seedDoc, report.Final(seedDoc))
	for _, candidate := range exec.executed {
		// a single insertion right after <body>
		assert.True(t, strings.HasSuffix(string(candidate), "<p>Hi</p></body></html>"))
		assert.NotEqual(t, seedDoc, candidate)
	}
}

// stdinClosedExecutor reports every candidate as a target that exited 0
// without reading its whole input.
type stdinClosedExecutor struct{ calls int }

func (e *stdinClosedExecutor) Execute(context.Context, types.Document) types.ExecutionResult {
	e.calls++
	return types.ExecutionResult{ExitCode: 0, Outcome: types.OutcomeIO}
}

func TestBacktrackerDoesNotAdvanceOnIOFailure(t *testing.T) {
	exec := &stdinClosedExecutor{}
	report := NewBacktracker(exec, mutate.NewSeededEngine(4, 4), 6).Run(context.Background(), seedDoc)

	assert.Equal(t, 6, exec.calls)
	assert.Equal(t, 6, report.Rejected)
	assert.Zero(t, report.Accepted)
	for k, base := range report.KnownGood {
		assert.Equal(t, seedDoc, base, "round %d", k)
	}
}

func TestBacktrackerCompoundsAcceptedMutations(t *testing.T) {
	exec := newFakeExecutor(neverFail)
	only := []mutate.Mutator{mutate.AddElement{Tags: []string{"span"}}}
	engine := mutate.NewEngine(only, rand.New(rand.NewPCG(1, 1)))

	report := NewBacktracker(exec, engine, 5).Run(context.Background(), seedDoc)

	assert.Equal(t, 5, report.Accepted)
	assert.Equal(t, 5, strings.Count(string(report.Final(seedDoc)), "<span>Valid Content</span>"))
	assert.Len(t, exec.executed, 5)
}

func TestBacktrackerZeroRounds(t *testing.T) {
	exec := newFakeExecutor(neverFail)
	report := NewBacktracker(exec, mutate.NewSeededEngine(1, 1), 0).Run(context.Background(), seedDoc)
	assert.Zero(t, report.Executed)
	assert.Equal(t, seedDoc, report.Final(seedDoc))
}

func TestBatchStrategyReport(t *testing.T) {
	exec := newFakeExecutor(func(call int, _ types.Document) bool { return call == 2 })
	s := &BatchStrategy{executor: exec, batchSize: 50, maxChain: 3, logger: zaptest.NewLogger(t)}

	report := s.Explore(context.Background(), types.Seed{Name: "hi", HTML: seedDoc}, mutate.NewSeededEngine(1, 2))

	assert.Equal(t, 3, report.Executed)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, "batch", s.Name())
}

func TestWalkStrategyReport(t *testing.T) {
	exec := newFakeExecutor(func(call int, _ types.Document) bool { return call%2 == 0 })
	s := &WalkStrategy{executor: exec, rounds: 10, logger: zaptest.NewLogger(t)}

	report := s.Explore(context.Background(), types.Seed{Name: "hi", HTML: seedDoc}, mutate.NewSeededEngine(1, 2))

	assert.Equal(t, 10, report.Executed)
	assert.Equal(t, 5, report.Failures)
	assert.Equal(t, "walk", s.Name())
	assert.Equal(t, 5, exec.state.Snapshot().FailedTests)
}
