package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// fit pads or truncates s to exactly width terminal cells.
func fit(s string, width int) string {
	w := lipgloss.Width(s)
	if w <= width {
		return s + strings.Repeat(" ", width-w)
	}

	runes := []rune(s)
	if width < 3 {
		return string(runes[:min(width, len(runes))])
	}
	for lipgloss.Width(string(runes)) > width-3 {
		runes = runes[:len(runes)-1]
	}
	return fit(string(runes)+"...", width)
}

// ColumnWidths sizes each column to its widest cell, capped at maxWidth.
func ColumnWidths(headers []string, data [][]string, maxWidth int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range data {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxWidth)
	}
	return widths
}

// RenderTable draws headers, a rule and data using colWidths. selectedRow is
// highlighted (pass -1 for none) and rows in mutedRows are dimmed.
func RenderTable(headers []string, data [][]string, colWidths []int, selectedRow int, mutedRows map[int]bool) string {
	var b strings.Builder

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = columnStyle.Render(fit(h, colWidths[i]))
	}
	b.WriteString(strings.Join(cells, " ") + "\n")

	rule := make([]string, len(colWidths))
	for i, w := range colWidths {
		rule[i] = strings.Repeat("─", w+2)
	}
	b.WriteString(ruleStyle.Render(strings.Join(rule, "┼")) + "\n")

	for r, row := range data {
		style := cell
		switch {
		case r == selectedRow:
			style = SelectedItemStyle
		case mutedRows[r]:
			style = emptySlotStyle
		}

		cells = cells[:0]
		for i, c := range row {
			if i < len(colWidths) {
				cells = append(cells, style.Render(fit(c, colWidths[i])))
			}
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}
	return b.String()
}
