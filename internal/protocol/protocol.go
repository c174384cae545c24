// Package protocol implements the JSON-RPC 2.0 message layer of the bridge:
// wire types, the fixed error-code set, request validation and dispatch, and
// bounded NDJSON line framing.
package protocol

import "encoding/json"

// Version is the only accepted value of the "jsonrpc" field.
const Version = "2.0"

// JSON-RPC 2.0 error codes. The -32000 range is reserved for application
// outcomes: execution and timeout describe the evaluated code, not protocol
// misuse.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeExecutionError = -32000
	CodeTimeout        = -32001
)

// Response is an outgoing JSON-RPC 2.0 response. Exactly one of Result or
// Error is set. The id is kept raw so string, number and null ids round-trip
// unchanged from the request.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject represents a JSON-RPC 2.0 error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewError creates an error object without diagnostic data.
func NewError(code int, message string) *ErrorObject {
	return &ErrorObject{Code: code, Message: message}
}

// NewErrorWithData creates an error object carrying a diagnostic payload.
func NewErrorWithData(code int, message string, data any) *ErrorObject {
	return &ErrorObject{Code: code, Message: message, Data: data}
}

// Error implements the error interface.
func (e *ErrorObject) Error() string {
	return e.Message
}

// nullID is the id used when a request's id could not be recovered.
var nullID = json.RawMessage("null")

// NewResultResponse builds a success response mirroring the request id.
func NewResultResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewErrorResponse builds an error response mirroring the request id.
func NewErrorResponse(id json.RawMessage, errObj *ErrorObject) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Error: errObj}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}

// Encode serializes a response as a single NDJSON line, including the
// trailing newline.
func (r *Response) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
