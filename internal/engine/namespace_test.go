package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceBasics(t *testing.T) {
	ns := NewNamespace()
	assert.Equal(t, 0, ns.Len())

	ns.Set("alpha", 1)
	ns.Set("beta", "two")

	v, ok := ns.Get("alpha")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = ns.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, ns.Names())
}

func TestNamespaceSnapshotIsCopy(t *testing.T) {
	ns := NewNamespace()
	ns.Set("x", 1)

	snap := ns.Snapshot()
	snap["x"] = 99
	snap["y"] = 2

	v, _ := ns.Get("x")
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, ns.Len())
}

func TestNamespaceMergeAndClear(t *testing.T) {
	ns := NewNamespace()
	ns.Set("keep", 1)
	ns.Merge(map[string]any{"keep": 2, "new": 3})

	v, _ := ns.Get("keep")
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, ns.Len())

	ns.Clear()
	assert.Equal(t, 0, ns.Len())
}

func TestFlag(t *testing.T) {
	var f Flag
	assert.False(t, f.IsSet())

	f.Set()
	assert.True(t, f.IsSet())

	f.Clear()
	assert.False(t, f.IsSet())
}
