package tui

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/npratt/voidhunter/internal/events"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalTooSmall reports whether stdout is below the minimum size the
// full view needs. An unknown size counts as too small.
func terminalTooSmall() bool {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return true
	}
	return width < minWidth || height < minHeight
}

// runSimple prints events line by line until the event channel closes or
// the process is interrupted.
func (t *TUI) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return printLines(os.Stdout, t.eventChan, sigChan)
}

func printLines(w io.Writer, eventChan <-chan events.Event, stop <-chan os.Signal) error {
	lines := &lineLog{w: w}
	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			if err := lines.write(event); err != nil {
				return err
			}
		}
	}
}

// lineLog writes one line per event. Ticks are written only when the stage
// or the action differs from the last tick written.
type lineLog struct {
	w      io.Writer
	stage  string
	action string
}

func (l *lineLog) write(event events.Event) error {
	if tick, ok := event.(*events.TickEvent); ok {
		if tick.Stage == l.stage && tick.Action == l.action {
			return nil
		}
		l.stage, l.action = tick.Stage, tick.Action
	}
	text := events.Format(event)
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintf(l.w, "%s %s\n", event.Timestamp().Format("15:04:05"), text)
	return err
}
