package results

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"htmlfuzz/internal/types"
)

func failed(out string) types.ExecutionResult {
	return types.ExecutionResult{ExitCode: 1, Output: out, Outcome: types.OutcomeExited}
}

func TestRecordCountsAndDeduplicates(t *testing.T) {
	s := NewRunState()
	steps := []types.ExecutionResult{
		{Outcome: types.OutcomePassed, Output: "fine"},
		failed("null pointer\n"),
		failed("  null pointer"),
		failed(""),
		{Outcome: types.OutcomeIO, ExitCode: -1},
		failed("index out of range"),
	}
	for _, res := range steps {
		s.Record(res)
		require.NoError(t, s.Snapshot().Check())
	}

	sum := s.Snapshot()
	assert.Equal(t, 6, sum.TotalTestsRun)
	assert.Equal(t, 5, sum.FailedTests)
	assert.Equal(t, []string{"index out of range", "null pointer"}, sum.UniqueErrors)
	assert.Equal(t, 1, sum.ExitCode())
	assert.True(t, s.Failed())
}

func TestPassingRunExitsZero(t *testing.T) {
	s := NewRunState()
	s.Record(types.ExecutionResult{Outcome: types.OutcomePassed})
	assert.False(t, s.Failed())
	assert.Equal(t, 0, s.Snapshot().ExitCode())
}

func TestSummaryCheck(t *testing.T) {
	assert.Error(t, Summary{TotalTestsRun: 1, FailedTests: 2}.Check())
	assert.Error(t, Summary{TotalTestsRun: 3, FailedTests: 1, UniqueErrors: []string{"a", "b"}}.Check())
	assert.NoError(t, Summary{}.Check())
}

func TestRecordIsConcurrencySafe(t *testing.T) {
	s := NewRunState()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				if j%2 == 0 {
					s.Record(failed(string(rune('a' + i))))
				} else {
					s.Record(types.ExecutionResult{Outcome: types.OutcomePassed})
				}
			}
		}()
	}
	wg.Wait()

	sum := s.Snapshot()
	assert.Equal(t, 800, sum.TotalTestsRun)
	assert.Equal(t, 400, sum.FailedTests)
	assert.Len(t, sum.UniqueErrors, 8)
	assert.NoError(t, sum.Check())
}
