package capture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedBufferUnderCap(t *testing.T) {
	b := NewBoundedBuffer(64)

	n, err := b.WriteString("hello ")
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = b.WriteString("world")
	require.NoError(t, err)

	assert.Equal(t, "hello world", b.String())
	assert.False(t, b.Truncated())
}

func TestBoundedBufferTruncation(t *testing.T) {
	b := NewBoundedBuffer(10)

	n, err := b.WriteString("0123456789ABCDEF")
	require.NoError(t, err)
	// Reported length is the full input even though part was dropped
	assert.Equal(t, 16, n)

	assert.True(t, b.Truncated())
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, "0123456789"+TruncationNotice, b.String())
	assert.True(t, strings.HasSuffix(b.String(), TruncationNotice))
}

func TestBoundedBufferDiscardsAfterTruncation(t *testing.T) {
	b := NewBoundedBuffer(4)

	_, err := b.WriteString("abcdef")
	require.NoError(t, err)
	_, err = b.WriteString("more")
	require.NoError(t, err)

	assert.Equal(t, "abcd"+TruncationNotice, b.String())
}

func TestBoundedBufferExactFit(t *testing.T) {
	b := NewBoundedBuffer(5)

	_, err := b.WriteString("12345")
	require.NoError(t, err)

	assert.False(t, b.Truncated())
	assert.Equal(t, "12345", b.String())

	// One more byte tips it over
	_, err = b.WriteString("6")
	require.NoError(t, err)
	assert.True(t, b.Truncated())
	assert.Equal(t, "12345"+TruncationNotice, b.String())
}
