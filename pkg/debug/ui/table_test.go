package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "abcd", fit("abcd", 4))
	assert.Equal(t, "ab...", fit("abcdefgh", 5))
	assert.Equal(t, "ab", fit("abcdefgh", 2))
	assert.Equal(t, 6, lipgloss.Width(fit("héllo wörld", 6)))
}

func TestColumnWidths(t *testing.T) {
	widths := ColumnWidths(
		[]string{"id", "name"},
		[][]string{{"1", "alice"}, {"1000", strings.Repeat("x", 50)}, {"2"}},
		10,
	)
	assert.Equal(t, []int{4, 10}, widths)
}

func TestRenderTable(t *testing.T) {
	headers := []string{"slot", "v"}
	rows := [][]string{{"0", "17"}, {"1", "-"}}
	out := RenderTable(headers, rows, ColumnWidths(headers, rows, 8), -1, map[int]bool{1: true})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "slot")
	assert.Contains(t, lines[1], "┼")
	assert.Contains(t, lines[2], "17")
}

func TestRenderError(t *testing.T) {
	out := RenderError(errors.New("page 9 outside [0, 2)"))
	assert.Contains(t, out, "page 9 outside")
	assert.Contains(t, out, "q to quit")
}
