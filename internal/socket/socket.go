// Package socket manages the Unix domain socket stratad serves its API on.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/lc/strata/internal/log"
)

var (
	// ErrAddressInUse is returned by Listen when another process already
	// accepts connections on the socket.
	ErrAddressInUse = errors.New("address already in use")
	// ErrNotRunning is returned by Connect when the daemon cannot be reached
	// and does not appear to be starting.
	ErrNotRunning = errors.New("daemon not running")
)

// DaemonName is the executable name Connect looks for while retrying.
const DaemonName = "stratad"

// Options tune how the socket is created and dialled.
type Options struct {
	// StartupTimeout bounds how long Connect keeps retrying.
	StartupTimeout time.Duration
	// RetryInterval is the pause between two dial attempts.
	RetryInterval time.Duration
	// Grace is how long Connect retries regardless of whether the daemon
	// process shows up in the process table.
	Grace time.Duration
	// Mode is applied to the socket file after it is created.
	Mode os.FileMode
	// Daemon is the executable name of the daemon.
	Daemon string
}

// DefaultOptions returns the options used by the package-level helpers.
func DefaultOptions() *Options {
	return &Options{
		StartupTimeout: 5 * time.Second,
		RetryInterval:  250 * time.Millisecond,
		Grace:          2 * time.Second,
		Mode:           defaultMode(),
		Daemon:         DaemonName,
	}
}

// Socket dials and listens on Unix domain sockets.
type Socket struct {
	opts    *Options
	procs   ProcessChecker
	created time.Time
}

// New returns a Socket. A nil opts means DefaultOptions.
func New(opts *Options, procs ProcessChecker) *Socket {
	if opts == nil {
		opts = DefaultOptions()
	}
	if procs == nil {
		procs = PSChecker{}
	}
	return &Socket{opts: opts, procs: procs, created: time.Now()}
}

// ConnectContext dials path with the default options.
func ConnectContext(ctx context.Context, path string) (net.Conn, error) {
	return New(nil, nil).Connect(ctx, path)
}

// Listen listens on path with the default options.
func Listen(path string) (net.Listener, error) {
	return New(nil, nil).Listen(path)
}

// Connect dials path, retrying while the daemon may still be starting. It
// gives up with ErrNotRunning once StartupTimeout has passed or, after the
// grace period, when no daemon process is found.
func (s *Socket) Connect(ctx context.Context, path string) (net.Conn, error) {
	deadline := time.Now().Add(s.opts.StartupTimeout)
	var d net.Dialer

	for attempt := 1; ; attempt++ {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !s.retry(deadline) {
			return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
		}
		log.Debug("socket: dial failed, retrying", "path", path, "attempt", attempt, "error", err)

		t := time.NewTimer(s.opts.RetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (s *Socket) retry(deadline time.Time) bool {
	if time.Now().After(deadline) {
		return false
	}
	if time.Since(s.created) < s.opts.Grace {
		return true
	}
	return s.procs.IsRunning(s.opts.Daemon)
}

// Listen creates the socket at path. A stale socket file left behind by a
// dead daemon is replaced; a live one yields ErrAddressInUse.
func (s *Socket) Listen(path string) (net.Listener, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating socket directory: %w", err)
	}

	if conn, err := net.Dial("unix", path); err == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrAddressInUse)
	}
	if err := os.Remove(path); err == nil {
		log.Info("socket: removed stale socket", "path", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("creating socket listener: %w", err)
	}
	if err := os.Chmod(path, s.opts.Mode); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}
	return ln, nil
}

// defaultMode lets every local user talk to the daemon where the kernel
// can report peer credentials, and only the owner elsewhere.
func defaultMode() os.FileMode {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
		return 0o666
	default:
		return 0o600
	}
}
