package daemon

import (
	"fmt"
	"time"

	"github.com/npratt/voidhunter/internal/match"
)

// handleRequest runs one validated control against the scanner.
func (d *Daemon) handleRequest(req *Request) Response {
	if d.scanner == nil {
		return Response{Error: "no scanner available"}
	}

	switch req.Method {
	case MethodStatus:
		return d.handleStatus()
	case MethodPause:
		d.scanner.Pause()
	case MethodResume:
		d.scanner.Resume()
	case MethodStop:
		d.scanner.Stop()
		d.stopSoon()
	default:
		return Response{Error: fmt.Sprintf("unknown method %q", req.Method)}
	}
	return Response{Result: d.controlResponse(req.Method)}
}

func (d *Daemon) controlResponse(m Method) ControlResponse {
	snap := d.scanner.Snapshot()
	return ControlResponse{
		Method: m,
		State:  string(snap.State),
		Stage:  snap.Stage.String(),
		Action: snap.Action.String(),
	}
}

// handleStatus returns the scanner's latest snapshot.
func (d *Daemon) handleStatus() Response {
	snap := d.scanner.Snapshot()
	startTime := d.StartTime()

	return Response{
		Result: StatusResponse{
			Status:       string(snap.State),
			RunID:        snap.RunID,
			Stage:        snap.Stage.String(),
			Action:       snap.Action.String(),
			Visible:      snap.Visible,
			Tick:         snap.Tick,
			RestartTicks: snap.RestartTicks,
			Restarts:     snap.Restarts,
			Results:      snap.Results,
			Total:        match.TotalClock(snap.Results),
			Uptime:       time.Since(startTime).Truncate(time.Second).String(),
			StartTime:    startTime.Format(time.RFC3339),
			Stats: StatusStats{
				Ticks:         snap.Stats.Ticks,
				FramesSkipped: snap.Stats.FramesSkipped,
				ProbeErrors:   snap.Stats.ProbeErrors,
				LastFrame:     snap.Stats.LastFrame,
			},
		},
	}
}

// stopSoon shuts the daemon down after the stop response has been written.
func (d *Daemon) stopSoon() {
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = d.Stop()
	}()
}
