package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/match"
	"github.com/npratt/voidhunter/internal/probe"
	"github.com/npratt/voidhunter/internal/scanner"
)

// shortSocketPath returns a socket path short enough for the Unix limit.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "sock")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

type fakeScanner struct {
	mu      sync.Mutex
	snap    scanner.Snapshot
	pauses  int
	resumes int
	stops   int
}

func (f *fakeScanner) Snapshot() scanner.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeScanner) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeScanner) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
}

func (f *fakeScanner) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeScanner) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses, f.resumes, f.stops
}

func startDaemon(t *testing.T, sc Scanner) (*Daemon, context.CancelFunc) {
	t.Helper()
	d := New(shortSocketPath(t), sc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !d.Running() {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("daemon did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return d, cancel
}

func TestDaemon_StartStop(t *testing.T) {
	d, cancel := startDaemon(t, &fakeScanner{})

	if _, err := os.Stat(d.SocketPath()); err != nil {
		t.Fatalf("socket not created: %v", err)
	}
	if d.StartTime().IsZero() {
		t.Error("StartTime() is zero after start")
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for d.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if d.Running() {
		t.Fatal("daemon still running after cancel")
	}
	if _, err := os.Stat(d.SocketPath()); !os.IsNotExist(err) {
		t.Errorf("socket not removed: %v", err)
	}
}

func TestDaemon_StatusRoundTrip(t *testing.T) {
	var roster probe.Roster
	roster[0] = &probe.Agent{Name: "Ellen"}
	results := []match.Result{
		{Roster: roster, Tier: probe.TierSeventh, Clock: clock.FromSeconds(90), Restarts: 1},
	}
	fake := &fakeScanner{snap: scanner.Snapshot{
		RunID:    "run-7",
		State:    scanner.StateScanning,
		Stage:    match.SecondHalf(match.Run),
		Action:   match.ActionPause,
		Visible:  []string{"pause"},
		Tick:     4,
		Restarts: 2,
		Results:  results,
		Stats:    scanner.Stats{Ticks: 120, ProbeErrors: 3},
	}}
	d, _ := startDaemon(t, fake)

	status, err := NewClient(d.SocketPath()).Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Status", status.Status, "scanning"},
		{"RunID", status.RunID, "run-7"},
		{"Stage", status.Stage, "SecondHalf(Run)"},
		{"Action", status.Action, "Pause"},
		{"Tick", status.Tick, 4},
		{"Restarts", status.Restarts, uint(2)},
		{"Results", len(status.Results), 1},
		{"Total", status.Total, clock.FromSeconds(90)},
		{"Ticks", status.Stats.Ticks, uint64(120)},
		{"ProbeErrors", status.Stats.ProbeErrors, uint64(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if status.Results[0].Tier != probe.TierSeventh {
		t.Errorf("Results[0].Tier = %v, want Seventh", status.Results[0].Tier)
	}
}

func TestDaemon_Controls(t *testing.T) {
	fake := &fakeScanner{snap: scanner.Snapshot{
		State: scanner.StateScanning,
		Stage: match.FirstHalf(match.Run),
	}}
	d, _ := startDaemon(t, fake)
	client := NewClient(d.SocketPath())

	paused, err := client.Pause()
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if paused.Method != MethodPause || paused.Stage != "FirstHalf(Run)" || paused.State != "scanning" {
		t.Errorf("Pause() = %+v, want pause at FirstHalf(Run) while scanning", paused)
	}
	if _, err := client.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	stopped, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if stopped.Method != MethodStop {
		t.Errorf("Stop().Method = %q, want %q", stopped.Method, MethodStop)
	}

	pauses, resumes, stops := fake.counts()
	if pauses != 1 || resumes != 1 || stops != 1 {
		t.Errorf("pause/resume/stop = %d/%d/%d, want 1/1/1", pauses, resumes, stops)
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if d.Running() {
		t.Error("daemon still running after stop request")
	}
}

func TestDaemon_UnknownMethodAndBadJSON(t *testing.T) {
	d, _ := startDaemon(t, &fakeScanner{})

	conn, err := net.Dial("unix", d.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = json.NewEncoder(conn).Encode(Request{Method: "retry", ID: 9})

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != `unknown method "retry"` {
		t.Errorf("Error = %q, want unknown method", resp.Error)
	}
	if resp.ID != 9 {
		t.Errorf("ID = %d, want 9", resp.ID)
	}

	raw, err := net.Dial("unix", d.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer raw.Close()
	_, _ = raw.Write([]byte("{not json\n"))
	resp = Response{}
	if err := json.NewDecoder(raw).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected decode error response")
	}
}

func TestDaemon_RejectedMethodsNeverReachScanner(t *testing.T) {
	fake := &fakeScanner{}
	d, _ := startDaemon(t, fake)

	for _, method := range []Method{"Pause", "STOP", "retry", ""} {
		t.Run(string(method), func(t *testing.T) {
			conn, err := net.Dial("unix", d.SocketPath())
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer conn.Close()
			_ = json.NewEncoder(conn).Encode(Request{Method: method, ID: 3})

			var resp Response
			if err := json.NewDecoder(conn).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error == "" || resp.Result != nil {
				t.Errorf("response = %+v, want an error and no result", resp)
			}
		})
	}

	pauses, resumes, stops := fake.counts()
	if pauses+resumes+stops != 0 {
		t.Errorf("pause/resume/stop = %d/%d/%d, want none", pauses, resumes, stops)
	}
	if !d.Running() {
		t.Error("daemon stopped after rejected requests")
	}
}

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Request
		wantErr error
		anyErr  bool
	}{
		{"status", `{"method":"status","id":1}`, Request{Method: MethodStatus, ID: 1}, nil, false},
		{"pause", `{"method":"pause"}`, Request{Method: MethodPause}, nil, false},
		{"resume", `{"method":"resume","id":2}`, Request{Method: MethodResume, ID: 2}, nil, false},
		{"stop", `{"method":"stop","id":4}`, Request{Method: MethodStop, ID: 4}, nil, false},
		{"unknown keeps id", `{"method":"retry","id":5}`, Request{Method: "retry", ID: 5}, errUnknownMethod, true},
		{"missing method", `{"id":6}`, Request{ID: 6}, errUnknownMethod, true},
		{"bad json", `{not json`, Request{}, nil, true},
		{"oversized", `{"method":"status","id":1,"pad":"` + strings.Repeat("x", maxRequestSize) + `"}`, Request{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readRequest(strings.NewReader(tt.input))
			if (err != nil) != tt.anyErr {
				t.Fatalf("readRequest() error = %v, want error %v", err, tt.anyErr)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("readRequest() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDaemon_NoScanner(t *testing.T) {
	d := New("unused", nil, nil)
	resp := d.handleRequest(&Request{Method: MethodStatus})
	if resp.Error == "" {
		t.Error("expected error without scanner")
	}
}
