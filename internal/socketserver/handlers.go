package socketserver

import (
	"github.com/gyoshu/bridge/internal/protocol"
	"github.com/gyoshu/bridge/internal/session"
)

// RegisterHandlers wires the fixed method registry to the session. Every
// handler receives the same session by reference; none holds its own state.
func RegisterHandlers(d *protocol.Dispatcher, sess *session.Session) {
	d.Register("execute", func(params map[string]any) (any, *protocol.ErrorObject) {
		return handleExecute(sess, params)
	})

	d.Register("interrupt", func(params map[string]any) (any, *protocol.ErrorObject) {
		return sess.Interrupt(), nil
	})

	d.Register("reset", func(params map[string]any) (any, *protocol.ErrorObject) {
		return sess.Reset(), nil
	})

	d.Register("get_state", func(params map[string]any) (any, *protocol.ErrorObject) {
		return sess.GetState(), nil
	})

	d.Register("ping", func(params map[string]any) (any, *protocol.ErrorObject) {
		return sess.Ping(), nil
	})
}

// handleExecute validates execute params and delegates to the session. A
// missing or empty code parameter is a protocol error and causes no state
// change; a bad timeout silently falls back to the session default.
func handleExecute(sess *session.Session, params map[string]any) (any, *protocol.ErrorObject) {
	raw, ok := params["code"]
	if !ok || raw == nil {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Missing required parameter: code")
	}

	code, ok := raw.(string)
	if !ok {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Parameter 'code' must be a string")
	}
	if code == "" {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "Missing required parameter: code")
	}

	var seconds float64
	if t, ok := params["timeout"].(float64); ok {
		seconds = t
	}

	return sess.Execute(code, sess.NormalizeTimeout(seconds)), nil
}
