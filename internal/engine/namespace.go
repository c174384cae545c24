package engine

import (
	"sort"
	"sync"
)

// Namespace is the persistent name→value mapping shared between the session
// and the evaluation engine. Value semantics are owned by the engine; the
// bridge core only enumerates names. The session owns the single instance and
// passes it by reference, so no competing copy exists.
type Namespace struct {
	mu   sync.RWMutex
	vars map[string]any
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{vars: make(map[string]any)}
}

// Get returns the value bound to name.
func (n *Namespace) Get(name string) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.vars[name]
	return v, ok
}

// Set binds name to value.
func (n *Namespace) Set(name string, value any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vars[name] = value
}

// Snapshot returns a shallow copy of the current bindings.
func (n *Namespace) Snapshot() map[string]any {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make(map[string]any, len(n.vars))
	for k, v := range n.vars {
		out[k] = v
	}
	return out
}

// Merge installs every binding from vars, overwriting existing names.
func (n *Namespace) Merge(vars map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for k, v := range vars {
		n.vars[k] = v
	}
}

// Names returns all bound names in sorted order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	names := make([]string, 0, len(n.vars))
	for k := range n.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings.
func (n *Namespace) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.vars)
}

// Clear removes every binding.
func (n *Namespace) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vars = make(map[string]any)
}
