package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() *Dispatcher {
	d := NewDispatcher()
	d.Register("echo", func(params map[string]any) (any, *ErrorObject) {
		return map[string]any{"params": params}, nil
	})
	d.Register("fail", func(params map[string]any) (any, *ErrorObject) {
		return nil, NewError(CodeInvalidParams, "bad params")
	})
	d.Register("panic", func(params map[string]any) (any, *ErrorObject) {
		panic("boom")
	})
	return d
}

func TestDispatchParseError(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch("{not json")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)
	assert.Equal(t, "null", string(resp.ID))
}

func TestDispatchNonObjectRequest(t *testing.T) {
	d := newTestDispatcher()

	for _, line := range []string{`[1,2,3]`, `"hello"`, `42`, `null`} {
		resp := d.Dispatch(line)
		require.NotNil(t, resp.Error, "line %q", line)
		assert.Equal(t, CodeInvalidRequest, resp.Error.Code, "line %q", line)
		assert.Equal(t, "Request must be a JSON object", resp.Error.Message, "line %q", line)
	}
}

func TestDispatchVersionMismatch(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"1.0","id":"req_1","method":"echo"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
	// The id is mirrored even though validation failed after extraction
	assert.Equal(t, `"req_1"`, string(resp.ID))
}

func TestDispatchMissingMethod(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_2"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)

	resp = d.Dispatch(`{"jsonrpc":"2.0","id":"req_3","method":5}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
}

func TestDispatchBadParamsType(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_4","method":"echo","params":[1,2]}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	// An explicit null is present-but-not-an-object, unlike omitted params
	resp = d.Dispatch(`{"jsonrpc":"2.0","id":"req_4b","method":"echo","params":null}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestDispatchMethodNotFound(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_5","method":"nonexistent"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, `"req_5"`, string(resp.ID))
}

func TestDispatchSuccessMirrorsID(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_6","method":"echo","params":{"x":1}}`)
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, `"req_6"`, string(resp.ID))

	// Numeric ids round-trip unchanged
	resp = d.Dispatch(`{"jsonrpc":"2.0","id":7,"method":"echo"}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, `7`, string(resp.ID))
}

func TestDispatchOmittedParamsDefaultsToEmpty(t *testing.T) {
	d := NewDispatcher()
	var seen map[string]any
	d.Register("probe", func(params map[string]any) (any, *ErrorObject) {
		seen = params
		return map[string]any{}, nil
	})

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_7","method":"probe"}`)
	require.Nil(t, resp.Error)
	require.NotNil(t, seen)
	assert.Empty(t, seen)
}

func TestDispatchHandlerError(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_8","method":"fail"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
	assert.Nil(t, resp.Result)
}

func TestDispatchHandlerPanicBecomesInternalError(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(`{"jsonrpc":"2.0","id":"req_9","method":"panic"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "boom")
	// Diagnostic payload carries a stack trace
	require.NotNil(t, resp.Error.Data)
	assert.Contains(t, resp.Error.Data.(string), "goroutine")
}

func TestResponseExactlyOneOfResultOrError(t *testing.T) {
	d := newTestDispatcher()

	for _, line := range []string{
		`{"jsonrpc":"2.0","id":"a","method":"echo"}`,
		`{"jsonrpc":"2.0","id":"b","method":"fail"}`,
		`{"jsonrpc":"2.0","id":"c","method":"panic"}`,
		`not json`,
	} {
		resp := d.Dispatch(line)
		data, err := resp.Encode()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))

		_, hasResult := decoded["result"]
		_, hasError := decoded["error"]
		assert.NotEqual(t, hasResult, hasError, "line %q: exactly one of result/error", line)
		assert.Equal(t, "2.0", decoded["jsonrpc"])
		assert.Contains(t, decoded, "id")
	}
}
