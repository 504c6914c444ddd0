package types

import "time"

// Outcome classifies a single execution of the target.
type Outcome int

const (
	OutcomePassed  Outcome = iota // exited with status 0
	OutcomeExited                 // exited with a non-zero status
	OutcomeLaunch                 // the process could not be started
	OutcomeIO                     // pipe or wait fault while talking to the process
	OutcomeTimeout                // killed after the per-execution deadline
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeExited:
		return "exited"
	case OutcomeLaunch:
		return "launch_failure"
	case OutcomeIO:
		return "io_failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ExecutionResult is what one harness invocation observed. It is consumed
// immediately by the calling strategy and never retained.
type ExecutionResult struct {
	ExitCode  int
	Output    string // stdout and stderr, interleaved as the target wrote them
	Outcome   Outcome
	Err       error // launch/IO/timeout cause, nil for clean exits
	Duration  time.Duration
	Truncated bool // output exceeded the capture limit
}

func (r ExecutionResult) Succeeded() bool {
	return r.Outcome == OutcomePassed
}

// FindingMessage carries a failing input to the findings store.
type FindingMessage struct {
	Document Document
	Result   ExecutionResult
}
