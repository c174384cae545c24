package socketserver

import (
	"bufio"
	"net"
	"strings"

	"github.com/gyoshu/bridge/internal/consts"
	"github.com/gyoshu/bridge/internal/logger"
	"github.com/gyoshu/bridge/internal/protocol"
)

// handleConnection drains one client connection: bounded line in, one
// response out, until end-of-stream. Protocol failures answer on the wire and
// keep the connection; I/O failures end only this connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReaderSize(conn, consts.BufferSize64KB)

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		line, oversized, err := protocol.ReadBoundedLine(reader, s.cfg.MaxRequestBytes)
		if err != nil {
			// A read error during shutdown is just Stop closing the connection
			select {
			case <-s.stopChan:
			default:
				logger.Warn("connection read error: %v", err)
			}
			return
		}

		if oversized {
			resp := protocol.NewErrorResponse(nil,
				protocol.NewError(protocol.CodeInvalidRequest, "Request too large"))
			if err := s.writeResponse(conn, resp); err != nil {
				return
			}
			continue
		}

		if line == nil {
			// Clean end-of-stream
			return
		}

		text := strings.TrimSpace(protocol.DecodeLenient(line))
		if text == "" {
			continue
		}

		resp := s.dispatcher.Dispatch(text)
		if err := s.writeResponse(conn, resp); err != nil {
			return
		}
	}
}

// writeResponse serializes one NDJSON response line to the connection.
func (s *Server) writeResponse(conn net.Conn, resp *protocol.Response) error {
	data, err := resp.Encode()
	if err != nil {
		// Result payloads are built from marshalable types; treat this as a
		// server bug but keep the connection alive with an internal error.
		logger.Error("failed to encode response: %v", err)
		fallback := protocol.NewErrorResponse(resp.ID,
			protocol.NewError(protocol.CodeInternalError, "Internal error: unserializable response"))
		data, err = fallback.Encode()
		if err != nil {
			return err
		}
	}

	if _, err := conn.Write(data); err != nil {
		logger.Warn("connection write error: %v", err)
		return err
	}
	return nil
}
