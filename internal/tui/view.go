package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the notebook: tabs, page toggles, figures, progress and
// status. The topmost modal replaces everything.
func (m *ViewerModel) View(width, height int) string {
	if width == 0 || height == 0 {
		return "Loading..."
	}
	if md := m.topModal(); md != nil {
		return md.View(width, height)
	}

	tabs := m.renderTabs(width)
	toggles := m.renderToggles(width)
	status := m.renderStatus(width)
	bar := m.renderProgress(width)

	figH := height - lipgloss.Height(tabs) - lipgloss.Height(toggles) - 2
	var body string
	switch {
	case m.src == nil:
		body = lipgloss.Place(width, figH, lipgloss.Center, lipgloss.Center,
			helpStyle.Render("No file open. Press o to open a readout file, ? for help."))
	case m.nav.Event() == nil:
		body = lipgloss.Place(width, figH, lipgloss.Center, lipgloss.Center, "Loading event...")
	default:
		body = lipgloss.NewStyle().Height(figH).MaxHeight(figH).
			Render(renderFigures(m.activePage().Figures(m.opts), width, figH))
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabs, toggles, body, bar, status)
}

func (m *ViewerModel) renderTabs(width int) string {
	parts := make([]string, 0, len(m.pages))
	for i, p := range m.pages {
		if i == m.active {
			parts = append(parts, activeTabStyle.Render(p.Title()))
		} else {
			parts = append(parts, tabStyle.Render(p.Title()))
		}
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func (m *ViewerModel) renderToggles(width int) string {
	var parts []string
	if m.opts.Accumulate {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorOrange).Bold(true).
			Render(fmt.Sprintf("ACCUMULATE (%d)", m.activePage().Filled())))
	}
	for _, t := range m.activePage().Toggles(m.opts) {
		mark := "[ ]"
		style := lipgloss.NewStyle().Foreground(ColorGray)
		if t.On {
			mark = "[x]"
			style = lipgloss.NewStyle().Foreground(ColorGreen)
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %s %s", t.Key, mark, t.Label)))
	}
	if len(parts) == 0 {
		return ""
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(parts, "  "))
}

func (m *ViewerModel) renderProgress(width int) string {
	m.bar.Width = max(width-24, 10)
	var label string
	var frac float64
	switch {
	case m.enchilada != nil:
		frac = float64(m.enchilada.next) / float64(max(m.enchilada.total-1, 1))
		label = "accumulating"
	case m.indexing && m.indexTotal > 0:
		frac = float64(m.indexDone) / float64(m.indexTotal)
		label = "indexing"
	default:
		if n := m.nav.Entries(); n > 1 && m.nav.Current() >= 0 {
			frac = float64(m.nav.Current()) / float64(n-1)
		}
		label = "position"
	}
	return fmt.Sprintf("%-12s %s", label, m.bar.ViewAs(min(max(frac, 0), 1)))
}

// eventText is the "event: i / n-1" field of the status bar.
func (m *ViewerModel) eventText() string {
	n := m.nav.Entries()
	if n == 0 {
		return "event: - / -"
	}
	return fmt.Sprintf("event: %d / %d", m.nav.Current(), n-1)
}

func (m *ViewerModel) playerText() string {
	switch {
	case m.player.Cycling():
		return "cycling"
	case m.player.Running():
		return m.player.Direction().String()
	}
	return "stopped"
}

func (m *ViewerModel) renderStatus(width int) string {
	fields := []string{
		m.eventText(),
		fmt.Sprintf("table(%.1f, %.1f)", m.opts.TableX, m.opts.TableY),
	}
	if m.path != "" {
		fields = append(fields, filepath.Base(m.path))
	}
	fields = append(fields,
		fmt.Sprintf("cut %g", m.nav.Cut()),
		fmt.Sprintf("delay %s", m.player.Delay()),
		m.playerText(),
	)
	if m.snapshotMode {
		fields = append(fields, "SNAPSHOT")
	}
	if m.indexed {
		fields = append(fields, "indexed")
	}
	line := strings.Join(fields, " | ")
	if m.errMsg != "" {
		return errorStyle.Width(width).MaxWidth(width).Render(line + " | " + m.errMsg)
	}
	if m.status != "" {
		line += " | " + m.status
	}
	return statusStyle.Width(width).MaxWidth(width).Render(line)
}

func (m *ViewerModel) aboutText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tbview %s\n\n", m.cfg.Version)
	b.WriteString("Event display for test-beam calorimeter and wire-chamber readout files.\n\n")
	if m.src == nil {
		b.WriteString("No file open.\n")
		return b.String()
	}
	info := m.src.Info()
	fmt.Fprintf(&b, "File:      %s\n", m.path)
	fmt.Fprintf(&b, "Events:    %d\n", info.Entries)
	fmt.Fprintf(&b, "Spill:     %d\n", info.Spill.Number)
	fmt.Fprintf(&b, "Beam:      %.1f GeV\n", info.Spill.BeamEnergy)
	fmt.Fprintf(&b, "Table:     (%.1f, %.1f)\n", info.Spill.TableX, info.Spill.TableY)
	fmt.Fprintf(&b, "Boards:    %v\n", info.BoardIDs)
	if m.snap != nil {
		fmt.Fprintf(&b, "Snapshots: %s (%d written)\n", m.snap.Dir(), len(m.snap.Manifest().Entries))
	}
	return b.String()
}
