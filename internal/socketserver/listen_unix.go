//go:build linux || darwin

package socketserver

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/gyoshu/bridge/internal/logger"
)

// socketMode is the only permission set the bound socket file may carry:
// owner read/write, nothing for group or world.
const socketMode = 0o600

// listenSocket binds a Unix stream socket at path with a listen backlog of 1,
// hardened against symlink/race substitution:
//
//  1. a pre-existing path entry is unlinked only if it is itself a socket;
//  2. the bind happens under umask 0o177 so the file is created owner-only;
//  3. the path is re-stat'ed afterwards and must still be a socket, owned by
//     this process's user, with mode exactly 0600 — any mismatch closes the
//     socket and fails startup.
func listenSocket(path string) (net.Listener, error) {
	if err := safeUnlinkSocket(path); err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	unix.CloseOnExec(fd)

	oldMask := unix.Umask(0o177)
	err = unix.Bind(fd, &unix.SockaddrUnix{Name: path})
	unix.Umask(oldMask)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}

	if err := verifySocketFile(path); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// Backlog 1: the bridge serves exactly one orchestrator
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	file := os.NewFile(uintptr(fd), path)
	listener, err := net.FileListener(file)
	// FileListener duplicates the descriptor; the original is ours to close
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("file listener: %w", err)
	}
	return listener, nil
}

// verifySocketFile re-checks the bound path. This guards against an attacker
// swapping the path between creation and use.
func verifySocketFile(path string) error {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return fmt.Errorf("post-bind check failed: cannot stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return fmt.Errorf("post-bind check failed: %s is not a socket", path)
	}
	if st.Uid != uint32(os.Geteuid()) {
		return fmt.Errorf("post-bind check failed: %s not owned by us", path)
	}
	if perm := st.Mode & 0o777; perm != socketMode {
		return fmt.Errorf("post-bind check failed: %s has mode %o, expected %o", path, perm, socketMode)
	}
	return nil
}

// safeUnlinkSocket removes a pre-existing path entry only if it is a socket.
// An unrelated file at the path is left alone.
func safeUnlinkSocket(path string) error {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("lstat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFSOCK {
		logger.Warn("not removing %s: exists but is not a socket", path)
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}
