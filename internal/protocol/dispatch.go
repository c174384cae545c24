package protocol

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/gyoshu/bridge/internal/logger"
)

// Handler processes the params of one validated request and returns either a
// result payload or an error object, never both.
type Handler func(params map[string]any) (any, *ErrorObject)

// Dispatcher validates incoming request lines and routes them through a fixed
// method registry. A failing handler is converted into an internal-error
// response at this boundary; it can never take down the connection.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register adds a method to the registry, replacing any previous entry.
func (d *Dispatcher) Register(method string, h Handler) {
	d.handlers[method] = h
}

// Methods returns the registered method names.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch parses, validates and executes a single request line, always
// producing exactly one response. Validation short-circuits in a fixed order:
// JSON parse, object shape, version literal, method, params shape.
func (d *Dispatcher) Dispatch(line string) *Response {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		// Distinguish malformed JSON from valid non-object JSON
		var anyVal any
		if json.Unmarshal([]byte(line), &anyVal) == nil {
			return NewErrorResponse(nil, NewError(CodeInvalidRequest, "Request must be a JSON object"))
		}
		return NewErrorResponse(nil, NewError(CodeParseError, fmt.Sprintf("Parse error: %v", err)))
	}
	if raw == nil {
		// A bare null decodes into a nil map without error
		return NewErrorResponse(nil, NewError(CodeInvalidRequest, "Request must be a JSON object"))
	}

	// Extract id opportunistically so later validation failures can still
	// mirror it.
	id := raw["id"]

	var version string
	if v, ok := raw["jsonrpc"]; ok {
		// A non-string version simply fails the comparison below
		_ = json.Unmarshal(v, &version)
	}
	if version != Version {
		return NewErrorResponse(id, NewError(CodeInvalidRequest,
			fmt.Sprintf("Invalid jsonrpc version, expected %q", Version)))
	}

	var method string
	if v, ok := raw["method"]; ok {
		_ = json.Unmarshal(v, &method)
	}
	if method == "" {
		return NewErrorResponse(id, NewError(CodeInvalidRequest, "Missing or invalid 'method'"))
	}

	// params is optional, but when present it must be an object; an explicit
	// null is present-and-not-an-object.
	params := map[string]any{}
	if v, ok := raw["params"]; ok {
		if string(v) == "null" {
			return NewErrorResponse(id, NewError(CodeInvalidParams, "Parameter 'params' must be an object"))
		}
		if err := json.Unmarshal(v, &params); err != nil {
			return NewErrorResponse(id, NewError(CodeInvalidParams, "Parameter 'params' must be an object"))
		}
	}

	handler, ok := d.handlers[method]
	if !ok {
		return NewErrorResponse(id, NewError(CodeMethodNotFound, fmt.Sprintf("Method not found: %s", method)))
	}

	return d.invoke(id, method, handler, params)
}

// invoke runs a handler with panic containment.
func (d *Dispatcher) invoke(id json.RawMessage, method string, h Handler, params map[string]any) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler %s panicked: %v", method, r)
			resp = NewErrorResponse(id, NewErrorWithData(CodeInternalError,
				fmt.Sprintf("Internal error: %v", r), string(debug.Stack())))
		}
	}()

	result, errObj := h(params)
	if errObj != nil {
		return NewErrorResponse(id, errObj)
	}
	return NewResultResponse(id, result)
}
