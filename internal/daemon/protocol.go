package daemon

import (
	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/match"
)

// Method is one of the scanner controls the daemon serves.
type Method string

const (
	MethodStatus Method = "status"
	MethodPause  Method = "pause"
	MethodResume Method = "resume"
	MethodStop   Method = "stop"
)

// Valid reports whether m is a control the daemon serves.
func (m Method) Valid() bool {
	switch m {
	case MethodStatus, MethodPause, MethodResume, MethodStop:
		return true
	}
	return false
}

// Request is a single control request. None of the controls take parameters.
type Request struct {
	Method Method `json:"method"`
	ID     int    `json:"id,omitempty"`
}

// Response answers a Request with the same ID.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// ControlResponse reports where the scanner was when a pause, resume or stop
// was accepted. The scanner applies the control on its next tick, so State
// may still show the previous state.
type ControlResponse struct {
	Method Method `json:"method"`
	State  string `json:"state"`
	Stage  string `json:"stage"`
	Action string `json:"action"`
}

// StatusResponse contains the scanner's view of the match.
type StatusResponse struct {
	Status       string         `json:"status"`
	RunID        string         `json:"run_id"`
	Stage        string         `json:"stage"`
	Action       string         `json:"action"`
	Visible      []string       `json:"visible"`
	Tick         int            `json:"tick"`
	RestartTicks int            `json:"restart_ticks"`
	Restarts     uint           `json:"restarts"`
	Results      []match.Result `json:"results"`
	Total        clock.Clock    `json:"total"`
	Uptime       string         `json:"uptime"`
	StartTime    string         `json:"start_time"`
	Stats        StatusStats    `json:"stats"`
}

// StatusStats contains scan counters for the status response.
type StatusStats struct {
	Ticks         uint64 `json:"ticks"`
	FramesSkipped uint64 `json:"frames_skipped"`
	ProbeErrors   uint64 `json:"probe_errors"`
	LastFrame     uint64 `json:"last_frame"`
}
