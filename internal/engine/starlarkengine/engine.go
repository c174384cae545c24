// Package starlarkengine provides the bridge's built-in evaluation
// collaborator on top of go.starlark.net. Starlark threads check for
// cancellation at loop back-edges and call sites, which gives the cooperative
// interrupt and watchdog-timeout semantics the session layer relies on.
package starlarkengine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/gyoshu/bridge/internal/capture"
	"github.com/gyoshu/bridge/internal/consts"
	"github.com/gyoshu/bridge/internal/engine"
	"github.com/gyoshu/bridge/internal/meminfo"
)

// Exception kinds reported by this engine.
const (
	KindSyntaxError      = "SyntaxError"
	KindRuntimeError     = "RuntimeError"
	KindTimeoutError     = "TimeoutError"
	KindInterruptedError = "InterruptedError"
)

// interruptPollInterval is how often a running evaluation checks the
// interrupt flag.
const interruptPollInterval = 10 * time.Millisecond

// fileOptions enables the dialect the bridge accepts: while loops, sets,
// top-level control flow, recursion and global reassignment, so scripts
// behave like a scratchpad rather than a config language.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Engine evaluates Starlark source against a persistent namespace.
type Engine struct {
	maxCaptureBytes int
}

// New creates an engine whose stdout/stderr captures are capped at
// maxCaptureBytes each. Non-positive values fall back to the default cap.
func New(maxCaptureBytes int) *Engine {
	if maxCaptureBytes <= 0 {
		maxCaptureBytes = consts.MaxCaptureBytes
	}
	return &Engine{maxCaptureBytes: maxCaptureBytes}
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return "starlark" }

// ReservedNames implements engine.Engine.
func (e *Engine) ReservedNames() []string {
	return []string{"get_memory", "clean_memory"}
}

// InitNamespace installs the default helper bindings.
func (e *Engine) InitNamespace(ns *engine.Namespace) {
	ns.Set("get_memory", memoryBuiltin("get_memory", false))
	ns.Set("clean_memory", memoryBuiltin("clean_memory", true))
}

// Evaluate implements engine.Engine.
func (e *Engine) Evaluate(ctx context.Context, code string, ns *engine.Namespace, interrupt *engine.Flag) (res *engine.Result) {
	stdout := capture.NewBoundedBuffer(e.maxCaptureBytes)
	stderr := capture.NewBoundedBuffer(e.maxCaptureBytes)

	finish := func(exc *engine.Exception) *engine.Result {
		return &engine.Result{
			Success:         exc == nil,
			Stdout:          stdout.String(),
			Stderr:          stderr.String(),
			StdoutTruncated: stdout.Truncated(),
			StderrTruncated: stderr.Truncated(),
			Exception:       exc,
		}
	}

	// The session depends on evaluation never panicking across this boundary.
	defer func() {
		if r := recover(); r != nil {
			res = finish(&engine.Exception{
				Type:      KindRuntimeError,
				Message:   fmt.Sprintf("evaluation panicked: %v", r),
				Traceback: fmt.Sprintf("evaluation panicked: %v", r),
			})
		}
	}()

	thread := &starlark.Thread{
		Name: "exec",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg + "\n")
		},
	}

	// Watch the deadline and the interrupt flag while the script runs;
	// Thread.Cancel makes the evaluator stop at its next check point.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		ticker := time.NewTicker(interruptPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-watchDone:
				return
			case <-ctx.Done():
				thread.Cancel("deadline exceeded")
				return
			case <-ticker.C:
				if interrupt.IsSet() {
					thread.Cancel("interrupt requested")
					return
				}
			}
		}
	}()

	predeclared := starlark.StringDict{}
	for name, value := range ns.Snapshot() {
		if v, ok := value.(starlark.Value); ok {
			predeclared[name] = v
		}
	}

	globals, err := starlark.ExecFileOptions(fileOptions, thread, "<exec>", code, predeclared)

	// Keep whatever bindings came back, even from a partially failed run.
	if len(globals) > 0 {
		merged := make(map[string]any, len(globals))
		for name, value := range globals {
			merged[name] = value
		}
		ns.Merge(merged)
	}

	if err == nil {
		return finish(nil)
	}
	return finish(e.classify(ctx, err, interrupt))
}

// classify maps an evaluation error onto the fixed failure kinds. Timeout and
// interrupt are detected from their causes rather than the error text, since
// both surface as cancelled evaluations.
func (e *Engine) classify(ctx context.Context, err error, interrupt *engine.Flag) *engine.Exception {
	if ctx.Err() == context.DeadlineExceeded {
		return &engine.Exception{
			Type:      KindTimeoutError,
			Message:   "Code execution timed out",
			Traceback: "Execution timed out",
		}
	}
	if interrupt.IsSet() {
		return &engine.Exception{
			Type:      KindInterruptedError,
			Message:   "Execution interrupted",
			Traceback: "Interrupted by user",
		}
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &engine.Exception{
			Type:      KindRuntimeError,
			Message:   evalErr.Msg,
			Traceback: evalErr.Backtrace(),
		}
	}

	var syntaxErr syntax.Error
	var resolveErrs resolve.ErrorList
	var resolveErr resolve.Error
	if errors.As(err, &syntaxErr) || errors.As(err, &resolveErrs) || errors.As(err, &resolveErr) {
		return &engine.Exception{
			Type:      KindSyntaxError,
			Message:   err.Error(),
			Traceback: err.Error(),
		}
	}

	return &engine.Exception{
		Type:      KindRuntimeError,
		Message:   err.Error(),
		Traceback: err.Error(),
	}
}

// memoryBuiltin returns a Starlark builtin exposing process memory usage,
// optionally forcing a collection pass first.
func memoryBuiltin(name string, collect bool) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(t *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
			return nil, err
		}
		if collect {
			runtime.GC()
		}
		snap := meminfo.Sample()
		d := starlark.NewDict(2)
		if err := d.SetKey(starlark.String("rss_mb"), starlark.Float(snap.RSSMB)); err != nil {
			return nil, err
		}
		if err := d.SetKey(starlark.String("vms_mb"), starlark.Float(snap.VMSMB)); err != nil {
			return nil, err
		}
		return d, nil
	})
}
