package session

import (
	"context"
	"math"
	"time"

	"github.com/gyoshu/bridge/internal/engine"
	"github.com/gyoshu/bridge/internal/logger"
	"github.com/gyoshu/bridge/internal/markers"
	"github.com/gyoshu/bridge/internal/meminfo"
)

// reapGrace is how long the watchdog waits, after cancelling an overdue
// evaluation, for the collaborator to actually return before the result is
// synthesized without it.
const reapGrace = 2 * time.Second

// Timing describes when an execution started and how long it ran.
type Timing struct {
	StartedAt  string  `json:"started_at"`
	DurationMS float64 `json:"duration_ms"`
}

// ExecutionError carries structured failure detail inside a successful RPC
// response; evaluation failures are expected outcomes, not server faults.
type ExecutionError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}

// ExecuteResult is the payload of execute responses.
type ExecuteResult struct {
	Success         bool             `json:"success"`
	Stdout          string           `json:"stdout"`
	Stderr          string           `json:"stderr"`
	StdoutTruncated bool             `json:"stdout_truncated"`
	StderrTruncated bool             `json:"stderr_truncated"`
	Markers         []markers.Marker `json:"markers"`
	Timing          Timing           `json:"timing"`
	Memory          meminfo.Snapshot `json:"memory"`
	Error           *ExecutionError  `json:"error,omitempty"`
}

// NormalizeTimeout converts a requested timeout in seconds into a duration,
// silently substituting the session default for absent or non-positive
// values. Availability-favoring policy: a bad timeout is never an error.
func (s *Session) NormalizeTimeout(seconds float64) time.Duration {
	if seconds <= 0 {
		return s.defaultTimeout
	}
	return time.Duration(seconds * float64(time.Second))
}

// Execute runs code through the evaluation engine under the one-slot
// execution lock. The timeout is enforced here as a watchdog, independent of
// the engine: past the deadline the evaluation is cancelled, and if the
// collaborator still does not return within a grace window the timeout result
// is synthesized without it. In that case the execution lock stays held until
// the stray evaluation finishes, so a second execution can never overlap it.
// Markers are parsed from stdout only, never stderr.
func (s *Session) Execute(code string, timeout time.Duration) *ExecuteResult {
	s.execMu.Lock()

	// A stale interrupt request must not bleed into this run.
	s.interrupt.Clear()

	startedAt := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	done := make(chan *engine.Result, 1)
	go func() {
		defer s.execMu.Unlock()
		defer cancel()
		done <- s.eng.Evaluate(ctx, code, s.namespace, &s.interrupt)
	}()

	var res *engine.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		// Deadline hit; give the cancelled evaluation a moment to come back
		// with its captured output.
		select {
		case res = <-done:
		case <-time.After(reapGrace):
			logger.Warn("evaluation ignored cancellation %s past the deadline, detaching", reapGrace)
			res = &engine.Result{
				Success: false,
				Exception: &engine.Exception{
					Type:      "TimeoutError",
					Message:   "Code execution timed out",
					Traceback: "Execution timed out",
				},
			}
		}
	}

	durationMS := math.Round(float64(time.Since(startedAt).Microseconds())/10) / 100

	result := &ExecuteResult{
		Success:         res.Success,
		Stdout:          res.Stdout,
		Stderr:          res.Stderr,
		StdoutTruncated: res.StdoutTruncated,
		StderrTruncated: res.StderrTruncated,
		Markers:         markers.Parse(res.Stdout),
		Timing: Timing{
			StartedAt:  startedAt.Format(time.RFC3339Nano),
			DurationMS: durationMS,
		},
		Memory: meminfo.Sample(),
	}

	if res.Exception != nil {
		result.Error = &ExecutionError{
			Type:      res.Exception.Type,
			Message:   res.Exception.Message,
			Traceback: res.Exception.Traceback,
		}
		logger.Info("execution failed after %.2fms: %s", durationMS, res.Exception.Type)
	} else {
		logger.Debug("execution succeeded in %.2fms", durationMS)
	}

	return result
}
