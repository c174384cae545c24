// Package capture provides bounded accumulation of output produced by an
// evaluation, so hostile or runaway code cannot exhaust bridge memory.
package capture

import (
	"bytes"
	"sync"
)

// TruncationNotice is appended to the rendered text once the cap is exceeded.
const TruncationNotice = "\n[OUTPUT TRUNCATED - exceeded 1MB limit]"

// BoundedBuffer accumulates text up to a maximum size. Writes past the cap
// are silently discarded and recorded via the truncated flag; writing never
// fails. Safe for concurrent use.
type BoundedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	maxSize   int
	truncated bool
}

// NewBoundedBuffer creates a buffer capped at maxSize bytes.
func NewBoundedBuffer(maxSize int) *BoundedBuffer {
	return &BoundedBuffer{maxSize: maxSize}
}

// Write implements io.Writer. It always reports the full input length as
// written, even when part or all of it was discarded.
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return len(p), nil
	}

	remaining := b.maxSize - b.buf.Len()
	if len(p) > remaining {
		if remaining > 0 {
			b.buf.Write(p[:remaining])
		}
		b.truncated = true
		return len(p), nil
	}

	b.buf.Write(p)
	return len(p), nil
}

// WriteString appends a string, subject to the cap.
func (b *BoundedBuffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// String returns the captured text, with the truncation notice appended when
// the cap was exceeded.
func (b *BoundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return b.buf.String() + TruncationNotice
	}
	return b.buf.String()
}

// Truncated reports whether any input was discarded.
func (b *BoundedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

// Len returns the number of retained bytes, excluding the notice.
func (b *BoundedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}
