package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/voidhunter/internal/bitmap"
)

const (
	minWidth  = 60
	minHeight = 15
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	sections := []string{
		m.renderHeader(),
		m.renderSignals(),
		m.renderDivider(),
		m.renderResults(),
		m.renderDivider(),
		m.renderEvents(),
		m.renderDivider(),
		m.renderFooter(),
	}
	content := strings.Join(sections, "\n")

	// Height() can clip; let content determine size
	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderTooSmall renders a message when terminal is too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// renderHeader renders scanner state, stage and counters on two lines.
func (m model) renderHeader() string {
	w := safeWidth(m.width - 4)

	status := m.renderStatus()
	stage := styles.Stage.Render(m.stage)
	statusLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		status,
		strings.Repeat(" ", max(1, w-lipgloss.Width(status)-lipgloss.Width(stage))),
		stage,
	)

	action := styles.Action.Render("action: " + m.action)
	counters := styles.Counter.Render(fmt.Sprintf("tick: %d  restart: %d  restarts: %d  frame: #%d",
		m.tick, m.restartTicks, m.restarts, m.lastFrame))
	detailLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		action,
		strings.Repeat(" ", max(1, w-lipgloss.Width(action)-lipgloss.Width(counters))),
		counters,
	)

	return statusLine + "\n" + detailLine
}

// renderStatus renders the status indicator, with a spinner while waiting.
func (m model) renderStatus() string {
	status := strings.ToUpper(m.status)

	var style lipgloss.Style
	switch m.status {
	case "waiting":
		return m.spinner.View() + " " + styles.StatusWaiting.Render(status)
	case "scanning":
		style = styles.StatusScanning
	case "paused", "pausing...":
		style = styles.StatusPaused
	case "over":
		style = styles.StatusOver
	case "stopped", "stopping":
		style = styles.StatusStopped
	default:
		style = styles.StatusWaiting
	}
	return style.Render(status)
}

// renderSignals renders one cell per signal, lit when visible.
func (m model) renderSignals() string {
	signals := bitmap.Signals()
	cells := make([]string, 0, len(signals))
	for _, sig := range signals {
		name := sig.String()
		if m.visible[name] {
			cells = append(cells, styles.SignalOn.Render(name))
		} else {
			cells = append(cells, styles.SignalOff.Render(name))
		}
	}
	return strings.Join(cells, " ")
}

// renderResults renders recorded results and the running total.
func (m model) renderResults() string {
	if len(m.results) == 0 {
		return styles.Counter.Render("no results yet")
	}

	lines := make([]string, 0, len(m.results))
	for i, r := range m.results {
		line := fmt.Sprintf("%d. %-8s %s  restarts: %d  %s",
			i+1, r.Tier, r.Clock, r.Restarts, strings.Join(r.Roster.Names(), ", "))
		lines = append(lines, styles.Result.Render(line))
	}
	lines[len(lines)-1] += "  " + styles.Total.Render("total "+m.total.String())
	return strings.Join(lines, "\n")
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider() string {
	w := safeWidth(m.width - 4)
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderEvents renders the scrollable event feed.
func (m model) renderEvents() string {
	visible := m.visibleLines()
	w := safeWidth(m.width - 4)

	if len(m.eventLines) == 0 {
		placeholder := "Waiting for events..."
		padding := strings.Repeat("\n", visible/2)
		return padding + lipgloss.PlaceHorizontal(w, lipgloss.Center, placeholder)
	}

	scrollPos := safeScroll(m.scrollPos, len(m.eventLines), visible)
	endPos := min(scrollPos+visible, len(m.eventLines))

	lines := make([]string, 0, visible)
	for _, el := range m.eventLines[scrollPos:endPos] {
		lines = append(lines, m.renderEventLine(el, w))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEventLine renders a single event with timestamp and styling.
func (m model) renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "

	textWidth := max(10, maxWidth-len(prefix))
	text := el.Text
	if len(text) > textWidth {
		text = text[:textWidth-3] + "..."
	}
	return styles.Counter.Render(prefix) + el.Style.Render(text)
}

// renderFooter renders keyboard shortcuts and scanner counters.
func (m model) renderFooter() string {
	var help string
	switch m.status {
	case "paused", "pausing...":
		help = "r: resume  q: quit  ↑/↓: scroll  g/G: top/bottom"
	case "stopped", "over":
		help = "q: quit  ↑/↓: scroll  g/G: top/bottom"
	default:
		help = "p: pause  q: quit  ↑/↓: scroll  g/G: top/bottom"
	}
	if m.statsGetter != nil {
		help += fmt.Sprintf("  |  ticks %d  skipped %d  errors %d",
			m.stats.Ticks, m.stats.FramesSkipped, m.stats.ProbeErrors)
	}
	return styles.Footer.Render(help)
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// safeScroll clamps scroll position to valid bounds.
func safeScroll(pos, totalLines, visibleLines int) int {
	if pos < 0 {
		return 0
	}
	maxScroll := totalLines - visibleLines
	if maxScroll < 0 {
		return 0
	}
	if pos > maxScroll {
		return maxScroll
	}
	return pos
}
