package daemon

import (
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/match"
	"github.com/npratt/voidhunter/internal/probe"
)

func TestClient_NotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	c.SetTimeout(100 * time.Millisecond)

	if c.IsRunning() {
		t.Error("IsRunning() = true for missing socket")
	}
	_, err := c.Status()
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("Status() error = %v, want ErrNotRunning", err)
	}
}

func TestClient_IsRunning(t *testing.T) {
	d, _ := startDaemon(t, &fakeScanner{})
	if !NewClient(d.SocketPath()).IsRunning() {
		t.Error("IsRunning() = false with daemon started")
	}
}

// answerOnce serves a single connection on a fresh socket, replying with
// whatever respond builds from the decoded request.
func answerOnce(t *testing.T, respond func(Request) any) string {
	t.Helper()
	path := shortSocketPath(t)
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var req Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			return
		}
		_ = json.NewEncoder(conn).Encode(respond(req))
	}()
	return path
}

func TestClient_ResponseIDMismatch(t *testing.T) {
	path := answerOnce(t, func(req Request) any {
		return Response{Result: StatusResponse{Stage: "Pick"}, ID: req.ID + 1}
	})

	_, err := NewClient(path).Status()
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Errorf("Status() error = %v, want id mismatch", err)
	}
}

func TestClient_DaemonError(t *testing.T) {
	path := answerOnce(t, func(req Request) any {
		return Response{Error: "no scanner available", ID: req.ID}
	})

	_, err := NewClient(path).Pause()
	if err == nil || !strings.Contains(err.Error(), "daemon pause: no scanner available") {
		t.Errorf("Pause() error = %v, want daemon error", err)
	}
}

func TestClient_TypedResults(t *testing.T) {
	var roster probe.Roster
	roster[0] = &probe.Agent{Name: "Anby"}
	result := match.Result{Roster: roster, Tier: probe.TierFifth, Clock: clock.FromSeconds(75)}

	statusPath := answerOnce(t, func(req Request) any {
		if req.Method != MethodStatus {
			return Response{Error: "wrong method", ID: req.ID}
		}
		return Response{ID: req.ID, Result: StatusResponse{
			Stage:   match.SecondHalf(match.Prepare).String(),
			Action:  match.ActionRestartDialog.String(),
			Results: []match.Result{result},
			Total:   clock.FromSeconds(75),
		}}
	})
	status, err := NewClient(statusPath).Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Stage != "SecondHalf(Prepare)" {
		t.Errorf("Stage = %q, want SecondHalf(Prepare)", status.Stage)
	}
	if status.Action != match.ActionRestartDialog.String() {
		t.Errorf("Action = %q, want %q", status.Action, match.ActionRestartDialog.String())
	}
	if len(status.Results) != 1 || status.Results[0].Clock != clock.FromSeconds(75) {
		t.Errorf("Results = %+v, want one 00:01:15 result", status.Results)
	}

	resumePath := answerOnce(t, func(req Request) any {
		return Response{ID: req.ID, Result: ControlResponse{Method: req.Method, State: "paused", Stage: "Pick"}}
	})
	resumed, err := NewClient(resumePath).Resume()
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.Method != MethodResume || resumed.State != "paused" {
		t.Errorf("Resume() = %+v, want resume accepted while paused", resumed)
	}
}
