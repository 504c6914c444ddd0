package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"htmlfuzz/config"
	"htmlfuzz/internal/crash"
	"htmlfuzz/internal/results"
	"htmlfuzz/internal/types"
	"htmlfuzz/pkg/telemetry"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// waitDelay bounds how long Wait keeps draining output after the target has
// exited or been killed, e.g. when a grandchild still holds the pipe.
const waitDelay = 2 * time.Second

var ErrTimeout = errors.New("execution timed out")

// Recorder receives every execution result.
type Recorder interface {
	Record(res types.ExecutionResult)
}

// FindingSink receives failing inputs.
type FindingSink interface {
	Submit(msg types.FindingMessage)
}

type Options struct {
	Timeout        time.Duration // 0 disables the deadline
	MaxOutputBytes int           // <= 0 keeps all output
}

// Harness runs one document through a fresh target process per call.
type Harness struct {
	invocation *Invocation
	opts       Options
	recorder   Recorder
	sink       FindingSink
	logger     *zap.Logger
}

func New(invocation *Invocation, opts Options, recorder Recorder, sink FindingSink, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{
		invocation: invocation,
		opts:       opts,
		recorder:   recorder,
		sink:       sink,
		logger:     logger.Named("harness"),
	}
}

type HarnessParams struct {
	fx.In
	Invocation *Invocation
	AppConfig  *config.AppConfig
	RunState   *results.RunState
	Findings   *crash.FindingStore `optional:"true"`
	Logger     *zap.Logger
}

func NewHarness(p HarnessParams) *Harness {
	var sink FindingSink
	if p.Findings != nil {
		sink = p.Findings
	}
	opts := Options{
		Timeout:        p.AppConfig.HarnessConfig.Timeout,
		MaxOutputBytes: p.AppConfig.HarnessConfig.MaxOutputBytes,
	}
	return New(p.Invocation, opts, p.RunState, sink, p.Logger)
}

// NewInvocationFromConfig resolves the configured target. It fails with
// ErrTargetNotFound before any test case runs.
func NewInvocationFromConfig(cfg *config.AppConfig) (*Invocation, error) {
	return NewInvocation(cfg.WorkingDir, cfg.Target)
}

// Execute feeds doc to a new target process and classifies what happened.
// The result is always recorded; failures also go to the finding sink.
func (h *Harness) Execute(ctx context.Context, doc types.Document) types.ExecutionResult {
	res := h.run(ctx, doc)

	if h.recorder != nil {
		h.recorder.Record(res)
	}
	if res.Succeeded() {
		h.logger.Debug("test passed", zap.Duration("elapsed", res.Duration))
		return res
	}

	h.logger.Warn("test failed",
		zap.String("outcome", res.Outcome.String()),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("elapsed", res.Duration),
		zap.Bool("truncated", res.Truncated),
		zap.Error(res.Err),
	)
	telemetry.FromContext(ctx).AddEvent("test_failed", telemetry.NewEventAttributes(map[string]string{
		"outcome":   res.Outcome.String(),
		"exit_code": strconv.Itoa(res.ExitCode),
	}))
	if h.sink != nil {
		h.sink.Submit(types.FindingMessage{Document: doc, Result: res})
	}
	return res
}

func (h *Harness) run(ctx context.Context, doc types.Document) types.ExecutionResult {
	runCtx := ctx
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	// one writer for both streams keeps them interleaved in write order
	out := &cappedBuffer{limit: h.opts.MaxOutputBytes}
	cmd := h.invocation.Command(runCtx)
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return types.ExecutionResult{
			ExitCode: -1,
			Outcome:  types.OutcomeLaunch,
			Err:      fmt.Errorf("failed to open stdin pipe: %w", err),
		}
	}
	if err := cmd.Start(); err != nil {
		return types.ExecutionResult{
			ExitCode: -1,
			Outcome:  types.OutcomeLaunch,
			Err:      fmt.Errorf("failed to start %s: %w", h.invocation, err),
			Duration: time.Since(start),
		}
	}

	_, writeErr := io.WriteString(stdin, string(doc))
	if closeErr := stdin.Close(); writeErr == nil && !errors.Is(closeErr, os.ErrClosed) {
		writeErr = closeErr
	}
	waitErr := cmd.Wait()

	res := types.ExecutionResult{
		ExitCode:  -1,
		Output:    out.String(),
		Duration:  time.Since(start),
		Truncated: out.truncated,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.Outcome = types.OutcomeTimeout
		res.Err = fmt.Errorf("%w after %s", ErrTimeout, h.opts.Timeout)
	case ctx.Err() != nil:
		res.Outcome = types.OutcomeIO
		res.Err = fmt.Errorf("execution interrupted: %w", ctx.Err())
	case writeErr != nil:
		// A target that stops reading early never saw the whole document.
		res.Outcome = types.OutcomeIO
		res.Err = fmt.Errorf("failed to write document to stdin: %w", writeErr)
	case errors.As(waitErr, &exitErr):
		res.Outcome = types.OutcomeExited
		res.Err = exitErr
	case waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay):
		res.Outcome = types.OutcomeIO
		res.Err = fmt.Errorf("failed to wait for target: %w", waitErr)
	case res.ExitCode != 0:
		res.Outcome = types.OutcomeExited
	default:
		res.Outcome = types.OutcomePassed
	}
	return res
}

