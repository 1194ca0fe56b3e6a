package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the screen
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Dialog   lipgloss.Style
	Label    lipgloss.Style
}

// DefaultStyles works on both dark and light terminals
func DefaultStyles() Styles {
	accent := lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#5fafd7"}
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Row:      lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(accent),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8a8a8a"}),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00af5f")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#d70000")),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2).
			MarginTop(1),
		Label: lipgloss.NewStyle().Bold(true),
	}
}
