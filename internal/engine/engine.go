// Package engine defines the contract between the bridge core and the code
// evaluation collaborator. The protocol and session layers stay agnostic to
// the evaluation technology behind this interface.
package engine

import (
	"context"
	"sync/atomic"
)

// Result is the outcome of one evaluation.
type Result struct {
	Success         bool
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	Exception       *Exception
}

// Exception describes an evaluation failure.
type Exception struct {
	// Type is the failure kind, e.g. "SyntaxError", "RuntimeError",
	// "TimeoutError", "InterruptedError".
	Type      string
	Message   string
	Traceback string
}

// Flag is an observable cancellation flag. interrupt() sets it; the engine is
// expected to poll it cooperatively between evaluation steps.
type Flag struct {
	set atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() { f.set.Store(true) }

// Clear lowers the flag.
func (f *Flag) Clear() { f.set.Store(false) }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.set.Load() }

// Engine evaluates code text against a persistent namespace. Implementations
// must honor the context deadline as the execution timeout and observe the
// interrupt flag cooperatively; they must never panic across this boundary.
type Engine interface {
	// Name identifies the evaluation technology.
	Name() string

	// InitNamespace installs the engine's default bindings into an empty
	// namespace. Called at session creation and on reset.
	InitNamespace(ns *Namespace)

	// ReservedNames lists bookkeeping bindings that get_state must hide.
	ReservedNames() []string

	// Evaluate runs code against ns, which is shared by reference: bindings
	// created or mutated here are visible to later calls. Mutations from a
	// partially failed run are kept, not rolled back.
	Evaluate(ctx context.Context, code string, ns *Namespace, interrupt *Flag) *Result
}
