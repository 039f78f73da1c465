package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// renderStatusBar renders the backend line at the top of the screen.
func renderStatusBar(backend string, trees, windows int, width int) string {
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	status := fmt.Sprintf("%s %s  trees:%d  windows:%d", dot, backend, trees, windows)

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom key binding bar, with the last action's
// result on the left.
func renderHelpBar(statusText string, isErr bool, width int) string {
	left := ""
	if statusText != "" {
		if isErr {
			left = errorStyle.Render(statusText)
		} else {
			left = okStyle.Render(statusText)
		}
	}
	right := mutedStyle.Render("n:new  a:add  x:remove  d:free  r:refresh  q:quit")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}

// renderPlaceholder centers msg in the given area.
func renderPlaceholder(msg string, width, height int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Foreground(lipgloss.Color("241")).
		Align(lipgloss.Center, lipgloss.Center)
	return style.Render(msg)
}
