package protocol

import (
	"bufio"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadBoundedLine reads one newline-delimited message from r, capping the
// number of retained bytes at maxBytes.
//
// Return contract:
//   - (nil, false, nil) on clean end-of-stream with no pending data;
//   - (line, false, nil) when the terminator was found within the cap, line
//     holding the exact bytes before it;
//   - (line, true, nil) when the cap was hit first; the remainder of the line
//     has been consumed and discarded up to the next terminator so the stream
//     stays correctly framed for the following call.
func ReadBoundedLine(r *bufio.Reader, maxBytes int) ([]byte, bool, error) {
	data := make([]byte, 0, 256)

	for len(data) < maxBytes {
		b, err := r.ReadByte()
		if err == io.EOF {
			if len(data) == 0 {
				return nil, false, nil
			}
			// Trailing data without terminator still counts as a line
			return data, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if b == '\n' {
			return data, false, nil
		}
		data = append(data, b)
	}

	// Cap exceeded: drain the rest of the line
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return data, true, err
		}
		if b == '\n' {
			break
		}
	}
	return data, true, nil
}

// DecodeLenient converts raw line bytes to a string, replacing undecodable
// byte sequences with U+FFFD instead of failing.
func DecodeLenient(b []byte) string {
	decoded, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
