package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	focusedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("#5B8DEF"))
	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#F2C94C")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#EB5757")).
			Padding(0, 1)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EB5757"))
)

// bar renders value/peak as a run of block characters at most width wide.
func bar(value, peak float64, width int) string {
	if peak <= 0 || width <= 0 || value <= 0 {
		return ""
	}
	n := int(value / peak * float64(width))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}

func panel(focused bool, width int, content string) string {
	style := panelStyle
	if focused {
		style = focusedPanelStyle
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(content)
}
