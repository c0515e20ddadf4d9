// Package daemon exposes a running scanner to other processes over a Unix
// socket: status queries and pause, resume and stop controls.
package daemon

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/npratt/voidhunter/internal/scanner"
)

// Scanner is the part of *scanner.Scanner the daemon controls.
type Scanner interface {
	Snapshot() scanner.Snapshot
	Pause()
	Resume()
	Stop()
}

// Daemon serves control requests for one scanner.
type Daemon struct {
	scanner   Scanner
	sockPath  string
	startTime time.Time
	logger    *slog.Logger

	listener net.Listener
	running  bool
	mu       sync.RWMutex
}

// New creates a Daemon listening on sockPath.
func New(sockPath string, sc Scanner, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		scanner:  sc,
		sockPath: sockPath,
		logger:   logger,
	}
}

// Running returns whether the daemon is currently running.
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// StartTime returns when the daemon was started.
func (d *Daemon) StartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// SocketPath returns the Unix socket path.
func (d *Daemon) SocketPath() string {
	return d.sockPath
}
