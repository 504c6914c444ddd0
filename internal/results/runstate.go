package results

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"htmlfuzz/internal/types"
)

// RunState holds the process-wide counters of one fuzzing run. It is safe
// for concurrent use.
type RunState struct {
	mu            sync.Mutex
	totalTestsRun int
	failedTests   int
	signatures    map[string]struct{}
}

// Summary is an immutable copy of a RunState.
type Summary struct {
	TotalTestsRun int
	FailedTests   int
	UniqueErrors  []string // sorted
}

func NewRunState() *RunState {
	return &RunState{signatures: make(map[string]struct{})}
}

// Record counts one execution. Failures with non-empty output contribute
// their trimmed output as an error signature.
func (s *RunState) Record(res types.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalTestsRun++
	if res.Succeeded() {
		return
	}
	s.failedTests++
	if sig := strings.TrimSpace(res.Output); sig != "" {
		s.signatures[sig] = struct{}{}
	}
}

func (s *RunState) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedTests > 0
}

func (s *RunState) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make([]string, 0, len(s.signatures))
	for sig := range s.signatures {
		errs = append(errs, sig)
	}
	slices.Sort(errs)
	return Summary{
		TotalTestsRun: s.totalTestsRun,
		FailedTests:   s.failedTests,
		UniqueErrors:  errs,
	}
}

// Check verifies failed <= total and signatures <= failed.
func (s Summary) Check() error {
	if s.FailedTests > s.TotalTestsRun {
		return fmt.Errorf("failed tests %d exceed total %d", s.FailedTests, s.TotalTestsRun)
	}
	if len(s.UniqueErrors) > s.FailedTests {
		return fmt.Errorf("unique errors %d exceed failed tests %d", len(s.UniqueErrors), s.FailedTests)
	}
	return nil
}

// ExitCode is the status the process should report for this run.
func (s Summary) ExitCode() int {
	if s.FailedTests > 0 {
		return 1
	}
	return 0
}
