package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Stage   lipgloss.Style
	Action  lipgloss.Style
	Counter lipgloss.Style

	// Signal grid
	SignalOn  lipgloss.Style
	SignalOff lipgloss.Style

	// Results
	Result lipgloss.Style
	Total  lipgloss.Style

	// Footer style
	Footer lipgloss.Style

	// Event styles
	Scan       lipgloss.Style
	Transition lipgloss.Style
	Dialog     lipgloss.Style
	Outcome    lipgloss.Style
	Error      lipgloss.Style

	// Status colors
	StatusWaiting  lipgloss.Style
	StatusScanning lipgloss.Style
	StatusPaused   lipgloss.Style
	StatusOver     lipgloss.Style
	StatusStopped  lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Stage: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Action: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	Counter: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	SignalOn: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	SignalOff: lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")),

	Result: lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")),

	Total: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Scan: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Transition: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Dialog: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	Outcome: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	StatusWaiting: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StatusScanning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StatusPaused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	StatusOver: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220")),

	StatusStopped: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),
}
