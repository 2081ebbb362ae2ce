// Package heapreader is a terminal inspector for a single heap file. It reads
// pages straight from the file, so it shows what is on disk and takes no
// page locks.
package heapreader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"heapstore/pkg/debug/ui"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

type heapKeyMap struct {
	ui.CommonKeyMap
	ui.NavigationKeyMap
}

var heapKeys = heapKeyMap{
	CommonKeyMap:     ui.CommonKeys,
	NavigationKeyMap: ui.NavigationKeys,
}

type view int

const (
	viewLoading view = iota
	viewPages
	viewPage
	viewTuples
)

const maxColWidth = 30

type pageSummary struct {
	pageNo primitives.PageNumber
	slots  int
	used   int
	err    error
}

// Model is the bubbletea model of the inspector.
type Model struct {
	file        *heap.HeapFile
	view        view
	pages       []pageSummary
	cursor      int
	currentNo   primitives.PageNumber
	current     *heap.HeapPage
	viewport    viewport.Model
	headers     []string
	rows        [][]string
	tupleCursor int
	width       int
	height      int
	err         error
}

// New creates an inspector for file. Nothing is read until Init runs.
func New(file *heap.HeapFile) Model {
	return Model{
		file:     file,
		view:     viewLoading,
		viewport: viewport.New(80, 20),
	}
}

// Run starts the inspector on the alternate screen and blocks until it quits.
func Run(file *heap.HeapFile) error {
	_, err := tea.NewProgram(New(file), tea.WithAltScreen()).Run()
	return err
}

type summaryLoadedMsg struct {
	pages []pageSummary
}

type pageLoadedMsg struct {
	pageNo primitives.PageNumber
	page   *heap.HeapPage
	err    error
}

type tuplesLoadedMsg struct {
	headers []string
	rows    [][]string
	err     error
}

func (m Model) Init() tea.Cmd {
	return loadSummary(m.file)
}

func readHeapPage(file *heap.HeapFile, pageNo primitives.PageNumber) (*heap.HeapPage, error) {
	p, err := file.ReadPage(primitives.NewPageID(file.GetID(), pageNo))
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*heap.HeapPage)
	if !ok {
		return nil, fmt.Errorf("page %d is a %T, not a heap page", pageNo, p)
	}
	return hp, nil
}

func loadSummary(file *heap.HeapFile) tea.Cmd {
	return func() tea.Msg {
		numPages := file.NumPages()
		pages := make([]pageSummary, 0, numPages)

		for pageNo := range numPages {
			summary := pageSummary{pageNo: pageNo}
			hp, err := readHeapPage(file, pageNo)
			if err != nil {
				summary.err = err
			} else {
				summary.slots = hp.NumSlots()
				summary.used = hp.NumSlots() - hp.GetNumEmptySlots()
			}
			pages = append(pages, summary)
		}
		return summaryLoadedMsg{pages: pages}
	}
}

func loadPage(file *heap.HeapFile, pageNo primitives.PageNumber) tea.Cmd {
	return func() tea.Msg {
		hp, err := readHeapPage(file, pageNo)
		return pageLoadedMsg{pageNo: pageNo, page: hp, err: err}
	}
}

func loadTuples(file *heap.HeapFile) tea.Cmd {
	return func() tea.Msg {
		td := file.GetTupleDesc()
		headers := append([]string{"rid"}, fieldNames(td)...)

		var rows [][]string
		for pageNo := range file.NumPages() {
			hp, err := readHeapPage(file, pageNo)
			if err != nil {
				return tuplesLoadedMsg{err: err}
			}
			for _, t := range hp.GetTuples() {
				rid := fmt.Sprintf("%d:%d", t.RecordID.PageID.PageNo(), t.RecordID.TupleNum)
				rows = append(rows, append([]string{rid}, formatFields(t)...))
			}
		}
		return tuplesLoadedMsg{headers: headers, rows: rows}
	}
}

func fieldNames(td *tuple.TupleDescription) []string {
	names := make([]string, td.NumFields())
	for i := range names {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = fmt.Sprintf("col%d", i)
		}
		names[i] = name
	}
	return names
}

func formatFields(t *tuple.Tuple) []string {
	cells := make([]string, t.TupleDesc.NumFields())
	for i := range cells {
		field, err := t.GetField(i)
		if err != nil {
			cells[i] = "ERROR"
			continue
		}
		cells[i] = formatField(field)
	}
	return cells
}

func formatField(field types.Field) string {
	if field == nil {
		return "NULL"
	}
	if s, ok := field.(*types.StringField); ok {
		return strings.TrimSpace(s.Value)
	}
	return field.String()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		m.pages = msg.pages
		m.view = viewPages
		return m, nil

	case pageLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.currentNo = msg.pageNo
		m.current = msg.page
		m.view = viewPage
		m.viewport.SetContent(m.renderPageBody())
		m.viewport.GotoTop()
		return m, nil

	case tuplesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.headers = msg.headers
		m.rows = msg.rows
		m.tupleCursor = 0
		m.view = viewTuples
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-10, 5)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, heapKeys.Quit) {
			return m, tea.Quit
		}
		if m.err != nil {
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewPages:
		switch {
		case key.Matches(msg, heapKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, heapKeys.Down):
			if m.cursor < len(m.pages)-1 {
				m.cursor++
			}
		case key.Matches(msg, heapKeys.Select):
			if m.cursor < len(m.pages) {
				return m, loadPage(m.file, m.pages[m.cursor].pageNo)
			}
		case key.Matches(msg, heapKeys.Toggle):
			return m, loadTuples(m.file)
		}

	case viewPage:
		last := primitives.PageNumber(len(m.pages) - 1)
		switch {
		case key.Matches(msg, heapKeys.Back):
			m.view = viewPages
			return m, nil
		case key.Matches(msg, heapKeys.NextPage):
			if m.currentNo < last {
				return m, loadPage(m.file, m.currentNo+1)
			}
		case key.Matches(msg, heapKeys.PrevPage):
			if m.currentNo > 0 {
				return m, loadPage(m.file, m.currentNo-1)
			}
		case key.Matches(msg, heapKeys.FirstPage):
			return m, loadPage(m.file, 0)
		case key.Matches(msg, heapKeys.LastPage):
			return m, loadPage(m.file, last)
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case viewTuples:
		switch {
		case key.Matches(msg, heapKeys.Back), key.Matches(msg, heapKeys.Toggle):
			m.view = viewPages
		case key.Matches(msg, heapKeys.Up):
			if m.tupleCursor > 0 {
				m.tupleCursor--
			}
		case key.Matches(msg, heapKeys.Down):
			if m.tupleCursor < len(m.rows)-1 {
				m.tupleCursor++
			}
		}
	}
	return m, nil
}
