// Package socketserver owns the bridge's Unix socket transport: hardened
// socket creation, the sequential accept loop, per-connection NDJSON framing
// and lifecycle shutdown.
package socketserver

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gyoshu/bridge/internal/config"
	"github.com/gyoshu/bridge/internal/consts"
	"github.com/gyoshu/bridge/internal/logger"
	"github.com/gyoshu/bridge/internal/protocol"
	"github.com/gyoshu/bridge/internal/session"
)

// Server serves JSON-RPC 2.0 over a single Unix domain socket. Connections
// are accepted sequentially: one client is fully drained before the next
// accept. This is a documented ceiling, not an oversight — the bridge serves
// a single local orchestrator.
type Server struct {
	cfg        *config.Config
	dispatcher *protocol.Dispatcher
	listener   net.Listener

	// Current connection, so Stop can unblock a client parked in a read
	connMu     sync.Mutex
	activeConn net.Conn

	// Control
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewServer creates a server wired to sess through the fixed method registry.
func NewServer(cfg *config.Config, sess *session.Session) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dispatcher := protocol.NewDispatcher()
	RegisterHandlers(dispatcher, sess)

	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start binds and hardens the listening socket. Any failure here is fatal to
// startup; the server must not come up on a socket it cannot verify.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	listener, err := listenSocket(s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on Unix socket %s: %w", s.cfg.SocketPath, err)
	}
	s.listener = listener
	s.running = true

	logger.Info("socket server started on %s", s.cfg.SocketPath)
	return nil
}

// Serve runs the accept loop until Stop is called. It returns nil on a clean
// shutdown.
func (s *Server) Serve() error {
	for {
		select {
		case <-s.stopChan:
			return nil
		default:
		}

		// Short accept deadline so stopChan is checked periodically
		if ul, ok := s.listener.(*net.UnixListener); ok {
			ul.SetDeadline(time.Now().Add(consts.Timeout1Second))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Error("accept error: %v", err)
			continue
		}

		logger.Info("client connected")
		s.setActiveConn(conn)
		s.handleConnection(conn)
		s.setActiveConn(nil)
		logger.Info("client disconnected")
	}
}

func (s *Server) setActiveConn(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.activeConn = conn
}

// Stop closes the listener and removes the socket file. Safe to call more
// than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		logger.Info("stopping socket server")
		close(s.stopChan)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Error("error closing listener: %v", err)
			}
		}

		// Unblock a connection handler parked in a read, so Serve can return
		s.connMu.Lock()
		if s.activeConn != nil {
			s.activeConn.Close()
		}
		s.connMu.Unlock()

		if err := safeUnlinkSocket(s.cfg.SocketPath); err != nil {
			logger.Warn("failed to remove socket file %s: %v", s.cfg.SocketPath, err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	})
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
