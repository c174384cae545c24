package starlarkengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyoshu/bridge/internal/engine"
)

func newTestSession() (*Engine, *engine.Namespace, *engine.Flag) {
	e := New(0)
	ns := engine.NewNamespace()
	e.InitNamespace(ns)
	return e, ns, &engine.Flag{}
}

func evaluate(t *testing.T, e *Engine, ns *engine.Namespace, flag *engine.Flag, code string, timeout time.Duration) *engine.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Evaluate(ctx, code, ns, flag)
}

func TestEvaluatePrintCapturesStdout(t *testing.T) {
	e, ns, flag := newTestSession()

	res := evaluate(t, e, ns, flag, `print(2)`, time.Second)
	require.True(t, res.Success)
	assert.Contains(t, res.Stdout, "2")
	assert.Empty(t, res.Stderr)
	assert.False(t, res.StdoutTruncated)
	assert.Nil(t, res.Exception)
}

func TestEvaluateSyntaxError(t *testing.T) {
	e, ns, flag := newTestSession()

	res := evaluate(t, e, ns, flag, `def broken(:`, time.Second)
	require.False(t, res.Success)
	require.NotNil(t, res.Exception)
	assert.Equal(t, KindSyntaxError, res.Exception.Type)
	assert.NotEmpty(t, res.Exception.Traceback)
}

func TestEvaluateRuntimeError(t *testing.T) {
	e, ns, flag := newTestSession()

	res := evaluate(t, e, ns, flag, `x = 1 // 0`, time.Second)
	require.False(t, res.Success)
	require.NotNil(t, res.Exception)
	assert.Equal(t, KindRuntimeError, res.Exception.Type)
	assert.NotEmpty(t, res.Exception.Message)
}

func TestEvaluatePersistentBindings(t *testing.T) {
	e, ns, flag := newTestSession()

	res := evaluate(t, e, ns, flag, `answer = 42`, time.Second)
	require.True(t, res.Success)

	res = evaluate(t, e, ns, flag, `print(answer)`, time.Second)
	require.True(t, res.Success)
	assert.Contains(t, res.Stdout, "42")
}

func TestEvaluatePartialMutationKeptOnFailure(t *testing.T) {
	e, ns, flag := newTestSession()

	res := evaluate(t, e, ns, flag, "kept = 7\nboom = 1 // 0", time.Second)
	require.False(t, res.Success)

	_, ok := ns.Get("kept")
	assert.True(t, ok, "bindings from a partially failed run are kept")
}

func TestEvaluateTimeout(t *testing.T) {
	e, ns, flag := newTestSession()

	start := time.Now()
	res := evaluate(t, e, ns, flag, "while True:\n    pass", 100*time.Millisecond)
	elapsed := time.Since(start)

	require.False(t, res.Success)
	require.NotNil(t, res.Exception)
	assert.Equal(t, KindTimeoutError, res.Exception.Type)
	assert.Less(t, elapsed, 5*time.Second, "timeout must not hang")
}

func TestEvaluateInterrupt(t *testing.T) {
	e, ns, flag := newTestSession()

	done := make(chan *engine.Result, 1)
	go func() {
		done <- evaluate(t, e, ns, flag, "while True:\n    pass", 30*time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	flag.Set()

	select {
	case res := <-done:
		require.False(t, res.Success)
		require.NotNil(t, res.Exception)
		assert.Equal(t, KindInterruptedError, res.Exception.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("interrupted evaluation did not return")
	}
}

func TestEvaluateStdoutTruncation(t *testing.T) {
	e := New(256)
	ns := engine.NewNamespace()
	e.InitNamespace(ns)
	flag := &engine.Flag{}

	res := evaluate(t, e, ns, flag, "for i in range(200):\n    print(\"xxxxxxxxxx\")", time.Second)
	require.True(t, res.Success)
	assert.True(t, res.StdoutTruncated)
	assert.Contains(t, res.Stdout, "OUTPUT TRUNCATED")
}

func TestMemoryHelpers(t *testing.T) {
	e, ns, flag := newTestSession()

	res := evaluate(t, e, ns, flag, `print(get_memory()["rss_mb"] >= 0)`, time.Second)
	require.True(t, res.Success)
	assert.Contains(t, res.Stdout, "True")

	res = evaluate(t, e, ns, flag, `print(clean_memory()["rss_mb"] >= 0)`, time.Second)
	require.True(t, res.Success)
	assert.Contains(t, res.Stdout, "True")
}
