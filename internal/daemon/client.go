package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// DefaultClientTimeout is the default timeout for client operations.
	DefaultClientTimeout = 5 * time.Second
)

// ErrNotRunning is returned when no daemon is listening on the socket.
var ErrNotRunning = errors.New("daemon not running")

// Client sends scanner controls to a running daemon.
type Client struct {
	sockPath string
	timeout  time.Duration
	lastID   atomic.Int64
}

// NewClient creates a client for the daemon at sockPath.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// reply is a Response as the client receives it, with the result left raw
// until the caller's type is known.
type reply struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	ID     int             `json:"id"`
}

// call sends method and decodes the result into out.
func (c *Client) call(method Method, out any) error {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	id := int(c.lastID.Add(1))
	if err := json.NewEncoder(conn).Encode(Request{Method: method, ID: id}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	var r reply
	if err := json.NewDecoder(conn).Decode(&r); err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if r.ID != id {
		return fmt.Errorf("%s: response id %d does not match request %d", method, r.ID, id)
	}
	if r.Error != "" {
		return fmt.Errorf("daemon %s: %s", method, r.Error)
	}
	if len(r.Result) == 0 {
		return fmt.Errorf("daemon %s: empty result", method)
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// wrapConnError maps socket errors to ErrNotRunning where the daemon is
// simply absent.
func wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return fmt.Errorf("%w (socket not found)", ErrNotRunning)
		case syscall.ECONNREFUSED:
			return fmt.Errorf("%w (connection refused)", ErrNotRunning)
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w (socket not found)", ErrNotRunning)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("daemon request timed out")
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

// Status returns the scanner's stage, action and recorded results.
func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.call(MethodStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Pause asks the scanner to stop ticking until resumed.
func (c *Client) Pause() (*ControlResponse, error) {
	return c.control(MethodPause)
}

// Resume asks a paused scanner to continue.
func (c *Client) Resume() (*ControlResponse, error) {
	return c.control(MethodResume)
}

// Stop asks the scanner to stop and the daemon to exit.
func (c *Client) Stop() (*ControlResponse, error) {
	return c.control(MethodStop)
}

func (c *Client) control(m Method) (*ControlResponse, error) {
	var resp ControlResponse
	if err := c.call(m, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsRunning checks if the daemon is running by attempting to connect.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
