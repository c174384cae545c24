// Command gyoshu-bridge serves code-execution requests from a local
// orchestrator as JSON-RPC 2.0 over a Unix domain socket.
//
// Usage:
//
//	gyoshu-bridge [flags] <socket_path>
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gyoshu/bridge/internal/config"
	"github.com/gyoshu/bridge/internal/engine/starlarkengine"
	"github.com/gyoshu/bridge/internal/logger"
	"github.com/gyoshu/bridge/internal/session"
	"github.com/gyoshu/bridge/internal/socketserver"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.DefaultConfig()

	fs := flag.NewFlagSet("gyoshu-bridge", flag.ContinueOnError)
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error, none")
	logFile := fs.String("log-file", "", "log file path (default: stderr)")
	maxRequest := fs.Int("max-request-bytes", cfg.MaxRequestBytes, "maximum size of one request line")
	maxCapture := fs.Int("max-capture-bytes", cfg.MaxCaptureBytes, "maximum captured stdout/stderr size")
	defaultTimeout := fs.Duration("default-timeout", cfg.DefaultTimeout, "execute timeout when the request has none")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: gyoshu-bridge [flags] <socket_path>\n")
		fmt.Fprintf(fs.Output(), "Example: gyoshu-bridge /tmp/gyoshu.sock\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("socket path is required")
	}

	cfg.SocketPath = fs.Arg(0)
	cfg.LogLevel = *logLevel
	cfg.LogPath = *logFile
	cfg.MaxRequestBytes = *maxRequest
	cfg.MaxCaptureBytes = *maxCapture
	cfg.DefaultTimeout = *defaultTimeout

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return err
	}

	eng := starlarkengine.New(cfg.MaxCaptureBytes)
	sess := session.New(eng, cfg.DefaultTimeout)

	srv, err := socketserver.NewServer(cfg, sess)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("gyoshu-bridge serving on %s, pid=%d, engine=%s", cfg.SocketPath, os.Getpid(), eng.Name())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received %s, shutting down", sig)
		srv.Stop()
	}()

	err = srv.Serve()
	logger.Global().Close()
	return err
}
