package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/voidhunter/internal/events"
	"github.com/npratt/voidhunter/internal/match"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 1000
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 100
	// tickInterval is the interval for periodic stats sync.
	tickInterval = time.Second
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg signals a periodic tick for stats synchronization.
type tickMsg time.Time

// waitForEvent creates a command that waits for the next event from the channel.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// doTick creates a command that waits for the tick interval and sends a tickMsg.
func doTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		return m, tea.Quit

	case tickMsg:
		if m.statsGetter != nil {
			m.stats = m.statsGetter.Stats()
		}
		return m, doTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "p":
		if m.onPause != nil {
			m.onPause()
		}
		m.status = "pausing..."

	case "r":
		if m.onResume != nil {
			m.onResume()
		}
		m.status = "resuming..."

	case "up", "k":
		m.autoScroll = false
		if m.scrollPos > 0 {
			m.scrollPos--
		}

	case "down", "j":
		maxScroll := len(m.eventLines) - m.visibleLines()
		if m.scrollPos < maxScroll {
			m.scrollPos++
		}
		if m.scrollPos >= maxScroll {
			m.autoScroll = true
		}

	case "home", "g":
		m.autoScroll = false
		m.scrollPos = 0

	case "end", "G":
		m.autoScroll = true
		m.scrollPos = max(0, len(m.eventLines)-m.visibleLines())
	}
	return m, nil
}

// handleEvent folds an event into the model.
func (m *model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case *events.TickEvent:
		m.stage = e.Stage
		m.action = e.Action
		m.tick = e.Tick
		m.restartTicks = e.RestartTicks
		m.lastFrame = e.Seq
		clear(m.visible)
		for _, name := range e.Visible {
			m.visible[name] = true
		}
		// Snapshots replace state; they don't go in the log.
		return

	case *events.ScanStateChangedEvent:
		m.status = e.To

	case *events.StageChangedEvent:
		m.stage = e.To
		m.tick = 0
		if e.To == match.Pick().String() {
			m.restarts = 0
		}

	case *events.ActionChangedEvent:
		m.action = e.To

	case *events.RestartCountedEvent:
		m.restarts = e.Restarts

	case *events.ResultRecordedEvent:
		m.results = append(m.results, e.Result)
		m.total = match.TotalClock(m.results)
		m.restarts = 0

	case *events.MatchOverEvent:
		m.status = "over"
		m.total = e.Total

	case *events.ScanStopEvent:
		if m.status != "over" {
			m.status = "stopped"
		}
	}

	text := events.Format(event)
	if text == "" {
		return
	}
	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
		m.scrollPos = max(0, m.scrollPos-trimEventLines)
	}
	if m.autoScroll {
		m.scrollPos = max(0, len(m.eventLines)-m.visibleLines())
	}
}
