package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	// maxRequestSize bounds a single request. Requests carry only a method
	// and an ID.
	maxRequestSize = 4 * 1024
	// connTimeout bounds reading the request and writing the response.
	connTimeout = 10 * time.Second
	// socketPermissions are the file permissions for the Unix socket.
	socketPermissions = 0600
)

var errUnknownMethod = errors.New("unknown method")

// Start serves scanner controls on the Unix socket until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.mu.Unlock()

	listener, err := d.listen()
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.listener = listener
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	d.logger.Info("daemon started", "socket", d.sockPath)

	go d.serve(ctx, listener)

	<-ctx.Done()
	return d.Stop()
}

// listen replaces any stale socket left by a previous run and restricts the
// new one to the current user.
func (d *Daemon) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(d.sockPath), 0755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	_ = os.Remove(d.sockPath)

	listener, err := net.Listen("unix", d.sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(d.sockPath, socketPermissions); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("set socket permissions: %w", err)
	}
	return listener, nil
}

// Stop closes the listener and removes the socket. The scanner keeps running.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false

	if d.listener != nil {
		if err := d.listener.Close(); err != nil {
			d.logger.Error("error closing listener", "error", err)
		}
		d.listener = nil
	}
	_ = os.Remove(d.sockPath)

	d.logger.Info("daemon stopped")
	return nil
}

func (d *Daemon) serve(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || !d.Running() {
				return
			}
			d.logger.Error("accept error", "error", err)
			continue
		}
		go d.handleConnection(conn)
	}
}

// handleConnection answers exactly one request per connection.
func (d *Daemon) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(connTimeout)); err != nil {
		d.logger.Error("set deadline error", "error", err)
		return
	}

	var resp Response
	req, err := readRequest(conn)
	switch {
	case errors.Is(err, errUnknownMethod):
		d.logger.Warn("rejected request", "method", req.Method)
		resp = Response{Error: err.Error()}
	case err != nil:
		resp = Response{Error: fmt.Sprintf("decode error: %v", err)}
	default:
		d.logger.Debug("control request", "method", req.Method)
		resp = d.handleRequest(&req)
	}
	resp.ID = req.ID

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		d.logger.Debug("write response failed", "method", req.Method, "error", err)
	}
}

// readRequest decodes one request and rejects methods outside the control
// set before anything reaches the scanner. The ID is kept on rejection so the
// error can still be matched to its request.
func readRequest(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(io.LimitReader(r, maxRequestSize)).Decode(&req); err != nil {
		return Request{}, err
	}
	if !req.Method.Valid() {
		return req, fmt.Errorf("%w %q", errUnknownMethod, req.Method)
	}
	return req, nil
}
