// Package setup holds the terminal front-end: the configuration wizard,
// the order and checkout forms and the renderers for quotes and alerts.
package setup

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD700"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	danger    = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F6D"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(danger).
			Padding(0, 1)

	mutedStyle   = lipgloss.NewStyle().Foreground(subtle)
	successStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}

// Header renders a screen title.
func Header(title string) string {
	return headerStyle.Render(title)
}
