package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/voidhunter/internal/clock"
	"github.com/npratt/voidhunter/internal/events"
	"github.com/npratt/voidhunter/internal/match"
	"github.com/npratt/voidhunter/internal/scanner"
)

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// model is the bubbletea model for the TUI.
type model struct {
	eventChan <-chan events.Event

	// Match view, rebuilt from events
	status       string
	stage        string
	action       string
	visible      map[string]bool
	tick         int
	restartTicks int
	restarts     uint
	results      []match.Result
	total        clock.Clock
	lastFrame    uint64

	eventLines []eventLine

	// UI state
	width      int
	height     int
	scrollPos  int
	autoScroll bool
	spinner    spinner.Model

	onPause  func()
	onResume func()
	onQuit   func()

	statsGetter StatsGetter
	stats       scanner.Stats
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// newModel creates a new model with the given configuration.
func newModel(
	eventChan <-chan events.Event,
	onPause, onResume, onQuit func(),
	statsGetter StatsGetter,
) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusWaiting

	return model{
		eventChan:   eventChan,
		status:      string(scanner.StateWaiting),
		stage:       match.Pick().String(),
		action:      match.ActionNone.String(),
		visible:     make(map[string]bool),
		autoScroll:  true,
		spinner:     sp,
		onPause:     onPause,
		onResume:    onResume,
		onQuit:      onQuit,
		statsGetter: statsGetter,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventChan), doTick(), m.spinner.Tick)
}

// visibleLines returns how many event lines fit on screen.
func (m model) visibleLines() int {
	// Border (2), header (2), signals (1), results block, dividers (3), footer (1)
	used := 9 + max(1, len(m.results))
	return max(1, m.height-used)
}
