// Package session holds the bridge's single persistent execution session: the
// namespace shared across execute calls, the advisory interrupt flag, and the
// one-slot execution lock.
package session

import (
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gyoshu/bridge/internal/engine"
	"github.com/gyoshu/bridge/internal/logger"
	"github.com/gyoshu/bridge/internal/meminfo"
)

// Session is the process-wide execution state. It is created at startup,
// lives until process exit, and is reconstructed in place by Reset. All
// handlers receive the same instance by reference.
type Session struct {
	eng       engine.Engine
	namespace *engine.Namespace
	interrupt engine.Flag

	// execMu is the one-slot execution lock. Execute and Reset contend for
	// it; Interrupt, GetState and Ping never do.
	execMu sync.Mutex

	defaultTimeout time.Duration

	// reserved caches engine bookkeeping names hidden from GetState.
	reserved map[string]bool
}

// New creates a session backed by eng, with its default bindings installed.
func New(eng engine.Engine, defaultTimeout time.Duration) *Session {
	s := &Session{
		eng:            eng,
		namespace:      engine.NewNamespace(),
		defaultTimeout: defaultTimeout,
		reserved:       make(map[string]bool),
	}
	for _, name := range eng.ReservedNames() {
		s.reserved[name] = true
	}
	eng.InitNamespace(s.namespace)
	return s
}

// StatusResult is the payload of interrupt and reset responses.
type StatusResult struct {
	Status string            `json:"status"`
	Memory *meminfo.Snapshot `json:"memory,omitempty"`
}

// StateResult is the payload of get_state responses.
type StateResult struct {
	Memory        meminfo.Snapshot `json:"memory"`
	Variables     []string         `json:"variables"`
	VariableCount int              `json:"variable_count"`
}

// PingResult is the payload of ping responses.
type PingResult struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Interrupt raises the interrupt flag and acknowledges immediately. This is
// advisory only: the engine polls the flag between evaluation steps, and no
// confirmation of actual cessation is ever produced.
func (s *Session) Interrupt() *StatusResult {
	s.interrupt.Set()
	logger.Info("interrupt requested")
	return &StatusResult{Status: "interrupt_requested"}
}

// Reset waits out any in-flight execution, discards the namespace,
// reinstalls the engine's default bindings, clears the interrupt flag and
// runs a collection pass.
func (s *Session) Reset() *StatusResult {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.namespace.Clear()
	s.eng.InitNamespace(s.namespace)
	s.interrupt.Clear()
	runtime.GC()

	logger.Info("session reset")
	snap := meminfo.Sample()
	return &StatusResult{Status: "reset", Memory: &snap}
}

// GetState returns the user-visible bindings and a memory snapshot. It never
// blocks on the execution lock.
func (s *Session) GetState() *StateResult {
	visible := []string{}
	for _, name := range s.namespace.Names() {
		if strings.HasPrefix(name, "_") || s.reserved[name] {
			continue
		}
		visible = append(visible, name)
	}

	return &StateResult{
		Memory:        meminfo.Sample(),
		Variables:     visible,
		VariableCount: len(visible),
	}
}

// Ping reports liveness. It always succeeds and never blocks.
func (s *Session) Ping() *PingResult {
	return &PingResult{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
