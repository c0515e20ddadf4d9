// Package tui provides a terminal UI for watching a match using bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/voidhunter/internal/events"
	"github.com/npratt/voidhunter/internal/scanner"
)

// StatsGetter provides access to scanner counters.
type StatsGetter interface {
	Stats() scanner.Stats
}

// TUI is the terminal UI for watching a match.
type TUI struct {
	eventChan   <-chan events.Event
	onPause     func()
	onResume    func()
	onQuit      func()
	statsGetter StatsGetter
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI with the given event channel and options.
func New(eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{eventChan: eventChan}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithOnPause sets the callback invoked when the user presses 'p'.
func WithOnPause(fn func()) Option {
	return func(t *TUI) { t.onPause = fn }
}

// WithOnResume sets the callback invoked when the user presses 'r'.
func WithOnResume(fn func()) Option {
	return func(t *TUI) { t.onResume = fn }
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) { t.onQuit = fn }
}

// WithStatsGetter sets the counter provider for the footer.
func WithStatsGetter(sg StatsGetter) Option {
	return func(t *TUI) { t.statsGetter = sg }
}

// Run starts the TUI and blocks until it exits. Without a usable terminal it
// falls back to printing one line per event.
func (t *TUI) Run() error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple()
	}

	m := newModel(t.eventChan, t.onPause, t.onResume, t.onQuit, t.statsGetter)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
