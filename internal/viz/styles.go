package viz

import "github.com/charmbracelet/lipgloss"

type styles struct {
	canvas  lipgloss.Style
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().
			Foreground(t.Bodies).
			Padding(1, 2),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(42),
		header: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			MarginBottom(1),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value: lipgloss.NewStyle().Foreground(t.Text),
		running: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Running),
		paused: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Paused),
		graph: lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
	}
}
