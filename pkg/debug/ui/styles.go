// Package ui holds the lipgloss styles, key bindings and table rendering
// shared by the heap file inspector and the heapctl command.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	primary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7C3AED"}
	secondary = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#06B6D4"}
	warning   = lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#F59E0B"}
	danger    = lipgloss.AdaptiveColor{Light: "#FF5F56", Dark: "#EF4444"}
	muted     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#94A3B8"}
	fg        = lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"}
	white     = lipgloss.Color("#FFFFFF")
)

var (
	cell = lipgloss.NewStyle().Foreground(fg).Padding(0, 1)

	SelectedItemStyle = cell.Foreground(white).Background(primary).Bold(true)
	ItemStyle         = cell
	LabelStyle        = lipgloss.NewStyle().Foreground(secondary).Bold(true)
	ValueStyle        = lipgloss.NewStyle().Foreground(fg)
	HelpStyle         = lipgloss.NewStyle().Foreground(muted).MarginTop(1).Padding(0, 1)
	WarningStyle      = lipgloss.NewStyle().Foreground(warning).Bold(true).Padding(0, 1)

	titleStyle     = lipgloss.NewStyle().Foreground(primary).Bold(true).Padding(0, 1).MarginBottom(1)
	headerStyle    = lipgloss.NewStyle().Foreground(secondary).Bold(true).Padding(0, 1).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(primary)
	statusBarStyle = lipgloss.NewStyle().Foreground(white).Background(primary).Padding(0, 1).MarginTop(1)
	errorStyle     = lipgloss.NewStyle().Foreground(danger).Bold(true).Padding(1)
	columnStyle    = cell.Foreground(white).Background(secondary).Bold(true)
	emptySlotStyle = cell.Foreground(muted)
	ruleStyle      = lipgloss.NewStyle().Foreground(muted)
)

// RenderError shows err with a hint on how to leave the program.
func RenderError(err error) string {
	return errorStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		"Error: "+err.Error(),
		"",
		"Press q to quit.",
	))
}

func RenderStatusBar(text string) string {
	return statusBarStyle.Render(text)
}

func RenderTitle(icon, title string) string {
	return titleStyle.Render(icon + "  " + title)
}

// RenderHeaderWithCount boxes text, followed by count unless it is negative.
func RenderHeaderWithCount(text string, count int) string {
	if count < 0 {
		return headerStyle.Render(" " + text + " ")
	}
	return headerStyle.Render(fmt.Sprintf(" %s (%d) ", text, count))
}
