package consts

import "time"

// Buffer sizes for various operations
const (
	// BufferSize1KB is 1 kilobyte
	BufferSize1KB = 1024
	// BufferSize64KB is 64 kilobytes
	BufferSize64KB = 64 * 1024
	// BufferSize1MB is 1 megabyte
	BufferSize1MB = 1024 * 1024
	// BufferSize10MB is 10 megabytes
	BufferSize10MB = 10 * 1024 * 1024
)

// Protocol limits
const (
	// MaxRequestLineBytes caps a single NDJSON request line
	MaxRequestLineBytes = BufferSize10MB
	// MaxCaptureBytes caps each of the stdout/stderr capture buffers
	MaxCaptureBytes = BufferSize1MB
)

// Timeouts for various operations
const (
	// Timeout1Second is a 1 second timeout
	Timeout1Second = 1 * time.Second
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// Timeout5Minutes is a 5 minute timeout
	Timeout5Minutes = 5 * time.Minute

	// DefaultExecuteTimeout is applied when a request omits a usable timeout
	DefaultExecuteTimeout = Timeout5Minutes
)
