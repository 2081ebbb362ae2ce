package heapreader

import (
	"fmt"
	"strings"

	"heapstore/pkg/debug/ui"
	"heapstore/pkg/primitives"
)

func (m Model) View() string {
	if m.err != nil {
		return ui.RenderError(m.err)
	}

	var b strings.Builder
	b.WriteString(ui.RenderTitle("▦", "Heap File Inspector") + "\n\n")

	switch m.view {
	case viewLoading:
		b.WriteString("Reading pages...\n")
	case viewPages:
		b.WriteString(m.renderPages())
	case viewPage:
		b.WriteString(m.renderPageHeader() + "\n")
		b.WriteString(m.viewport.View() + "\n")
		b.WriteString(ui.HelpStyle.Render("↑/↓: scroll | n/p: next/prev page | g/G: first/last | esc: back | q: quit"))
	case viewTuples:
		b.WriteString(m.renderTuples())
	}

	b.WriteString("\n" + m.renderStatusBar())
	return b.String()
}

func (m Model) renderPages() string {
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount("Pages", len(m.pages)) + "\n\n")

	if len(m.pages) == 0 {
		b.WriteString(ui.ItemStyle.Render("The file has no pages.") + "\n")
	}

	for i, p := range m.pages {
		line := fmt.Sprintf("page %-4d %s", p.pageNo, occupancyBar(p.used, p.slots, 20))
		if p.err != nil {
			line = fmt.Sprintf("page %-4d %s", p.pageNo, ui.WarningStyle.Render(p.err.Error()))
		} else {
			line += fmt.Sprintf(" %d/%d slots", p.used, p.slots)
		}

		if i == m.cursor {
			b.WriteString(ui.SelectedItemStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(ui.ItemStyle.Render("  "+line) + "\n")
		}
	}

	b.WriteString(ui.HelpStyle.Render("↑/↓: navigate | enter: open page | tab: all tuples | q: quit"))
	return b.String()
}

// occupancyBar draws used/slots as a fixed-width bar.
func occupancyBar(used, slots, width int) string {
	if slots == 0 {
		return "[" + strings.Repeat(" ", width) + "]"
	}
	filled := used * width / slots
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

func (m Model) renderPageHeader() string {
	if m.current == nil {
		return ""
	}
	hp := m.current
	used := hp.NumSlots() - hp.GetNumEmptySlots()

	return fmt.Sprintf("%s %s  %s %d  %s %d  %s %d bytes",
		ui.LabelStyle.Render("Page"), ui.ValueStyle.Render(fmt.Sprintf("%d/%d", m.currentNo+1, len(m.pages))),
		ui.LabelStyle.Render("Slots"), hp.NumSlots(),
		ui.LabelStyle.Render("Used"), used,
		ui.LabelStyle.Render("Header"), len(hp.Header()))
}

// renderPageBody lists the header bytes and every slot of the current page.
func (m Model) renderPageBody() string {
	hp := m.current
	if hp == nil {
		return ""
	}

	var b strings.Builder
	header := hp.Header()
	hexBytes := make([]string, len(header))
	for i, by := range header {
		hexBytes[i] = fmt.Sprintf("%02x", by)
	}
	b.WriteString(ui.LabelStyle.Render("header ") + strings.Join(hexBytes, " ") + "\n")

	bits := make([]byte, hp.NumSlots())
	for i := range bits {
		bits[i] = '0'
		if hp.IsSlotUsed(i) {
			bits[i] = '1'
		}
	}
	b.WriteString(ui.LabelStyle.Render("slots  ") + string(bits) + "\n\n")

	td := hp.GetTupleDesc()
	headers := append([]string{"slot"}, fieldNames(td)...)
	rows := make([][]string, 0, hp.NumSlots())
	empty := make(map[int]bool)

	for i, t := range hp.Tuples() {
		row := []string{fmt.Sprintf("%d", i)}
		if t == nil {
			empty[i] = true
			for range td.NumFields() {
				row = append(row, "-")
			}
		} else {
			row = append(row, formatFields(t)...)
		}
		rows = append(rows, row)
	}

	widths := ui.ColumnWidths(headers, rows, maxColWidth)
	b.WriteString(ui.RenderTable(headers, rows, widths, -1, empty))
	return b.String()
}

func (m Model) renderTuples() string {
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount("Tuples", len(m.rows)) + "\n\n")

	if len(m.rows) == 0 {
		b.WriteString(ui.ItemStyle.Render("The file holds no tuples.") + "\n")
	} else {
		start := max(0, m.tupleCursor-10)
		end := min(len(m.rows), start+20)
		widths := ui.ColumnWidths(m.headers, m.rows, maxColWidth)
		b.WriteString(ui.RenderTable(m.headers, m.rows[start:end], widths, m.tupleCursor-start, nil))
	}

	b.WriteString(ui.HelpStyle.Render("↑/↓: navigate | tab/esc: pages | q: quit"))
	return b.String()
}

func (m Model) renderStatusBar() string {
	var status string
	switch m.view {
	case viewPages:
		status = fmt.Sprintf(" %s | file %d | %d pages ", m.file.FilePath(), m.file.GetID(), len(m.pages))
	case viewPage:
		status = fmt.Sprintf(" Page %s ", primitives.NewPageID(m.file.GetID(), m.currentNo))
	case viewTuples:
		status = fmt.Sprintf(" Row %d/%d ", min(m.tupleCursor+1, len(m.rows)), len(m.rows))
	default:
		status = " Loading... "
	}
	return ui.RenderStatusBar(status)
}
