/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package browser is an interactive terminal view of a session. Only the
// items inside the visible window are materialized on each frame.
package browser

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/views"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	groupStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const (
	// Lines outside the body: title, column header, summaries, status.
	chromeLines   = 4
	defaultHeight = 24
	maxCellWidth  = 32
	minCellWidth  = 3
)

type refreshedMsg struct{ err error }

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	session *views.Session

	width  int
	height int
	cursor int // Index into the flattened item list
	offset int // First visible item
	vm     views.TableViewModel
	err    error
}

// New returns a browser over session. The session is refreshed on start
// when it has not been loaded yet.
func New(ctx context.Context, session *views.Session) Model {
	m := Model{ctx: ctx, session: session, height: defaultHeight}
	m.rebuild()
	return m
}

// Cursor returns the index of the highlighted item.
func (m Model) Cursor() int { return m.cursor }

// Offset returns the index of the first visible item.
func (m Model) Offset() int { return m.offset }

// ViewModel returns the view model of the current frame.
func (m Model) ViewModel() views.TableViewModel { return m.vm }

// Err returns the last refresh error.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	if m.session.Loaded() {
		return nil
	}
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return refreshedMsg{err: session.Refresh(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuild()
	case refreshedMsg:
		m.err = msg.err
		m.rebuild()
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "pgup", "b":
		m.cursor -= m.bodyHeight()
	case "pgdown", "f":
		m.cursor += m.bodyHeight()
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = m.vm.TotalItems - 1
	case "enter":
		if item, ok := m.current(); ok && item.Header {
			m.session.ToggleGroup(m.vm.Header(item).Key)
			m.rebuild()
		}
		return m, nil
	case " ", "space":
		if item, ok := m.current(); ok && !item.Header && item.RowKey != "" {
			m.session.ToggleSelect(item.RowKey)
			m.rebuild()
		}
		return m, nil
	case "r":
		return m, m.refresh()
	default:
		return m, nil
	}
	m.clamp()
	m.rebuild()
	return m, nil
}

func (m Model) bodyHeight() int {
	return max(m.height-chromeLines, 1)
}

// clamp keeps the cursor on an item and inside the visible window.
func (m *Model) clamp() {
	total := m.vm.TotalItems
	body := m.bodyHeight()
	m.cursor = max(min(m.cursor, total-1), 0)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+body {
		m.offset = m.cursor - body + 1
	}
	m.offset = max(min(m.offset, total-body), 0)
}

// rebuild recomputes the frame. The item count can change underneath the
// cursor after a toggle or refresh, which may move the window.
func (m *Model) rebuild() {
	m.vm = m.viewModel()
	offset := m.offset
	m.clamp()
	if m.offset != offset {
		m.vm = m.viewModel()
	}
}

func (m Model) viewModel() views.TableViewModel {
	return m.session.ViewModel(views.Viewport{
		ScrollOffset: m.offset,
		Height:       m.bodyHeight(),
		RowHeight:    1,
		Overscan:     -1,
	})
}

// current returns the item under the cursor.
func (m Model) current() (views.ItemView, bool) {
	for _, item := range m.vm.Items {
		if item.Index == m.cursor {
			return item, true
		}
	}
	return views.ItemView{}, false
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.vm.Title))
	b.WriteByte('\n')

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteByte('\n')
	}
	if !m.vm.Loaded && m.err == nil {
		b.WriteString(dimStyle.Render("loading..."))
		b.WriteByte('\n')
		return b.String()
	}

	widths := m.columnWidths()
	headers := make([]string, len(m.vm.Columns))
	for i, c := range m.vm.Columns {
		headers[i] = fit(c.Header+sortMarker(c), widths[i], c.Align)
	}
	b.WriteString(headerStyle.Render("  " + strings.Join(headers, " ")))
	b.WriteByte('\n')

	body := m.bodyHeight()
	for _, item := range m.vm.Items {
		if item.Index < m.offset || item.Index >= m.offset+body {
			continue
		}
		line := m.itemLine(item, widths)
		if item.Index == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if len(m.vm.Summaries) > 0 {
		cells := make([]string, len(m.vm.Summaries))
		for i, s := range m.vm.Summaries {
			cells[i] = fit(summaryText(s), widths[i], m.vm.Columns[i].Align)
		}
		b.WriteString(dimStyle.Render("  " + strings.Join(cells, " ")))
		b.WriteByte('\n')
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d lines  %d rows  %d selected  [enter] group  [space] select  [r]efresh  [q]uit",
		min(m.cursor+1, m.vm.TotalItems), m.vm.TotalItems, m.vm.TotalRows, len(m.vm.Selected))))
	return b.String()
}

func (m Model) itemLine(item views.ItemView, widths []int) string {
	if item.Header {
		g := m.vm.Header(item)
		marker := "▾"
		if g.Collapsed {
			marker = "▸"
		}
		return groupStyle.Render(fmt.Sprintf("%s %s (%d)", marker, g.Label, g.Count))
	}
	prefix := "  "
	if item.Selected {
		prefix = selectedStyle.Render("* ")
	}
	cells := make([]string, len(item.Cells))
	for i, c := range item.Cells {
		cells[i] = fit(c.Text, widths[i], m.vm.Columns[i].Align)
	}
	return prefix + strings.Join(cells, " ")
}

// columnWidths sizes each column to its header and the visible cells,
// honoring a configured width.
func (m Model) columnWidths() []int {
	widths := make([]int, len(m.vm.Columns))
	for i, c := range m.vm.Columns {
		if c.Width > 0 {
			widths[i] = c.Width
			continue
		}
		w := lipgloss.Width(c.Header) + 2
		for _, item := range m.vm.Items {
			if i < len(item.Cells) {
				w = max(w, lipgloss.Width(item.Cells[i].Text))
			}
		}
		widths[i] = max(min(w, maxCellWidth), minCellWidth)
	}
	return widths
}

func sortMarker(c views.ColumnHeader) string {
	switch c.SortOrder {
	case query.Asc:
		return " ▲"
	case query.Desc:
		return " ▼"
	}
	return ""
}

func summaryText(s views.SummaryCell) string {
	if s.Text == "" {
		return ""
	}
	return s.Symbol + " " + s.Text
}

// fit pads or truncates s to exactly w cells.
func fit(s string, w int, align columns.Align) string {
	if lipgloss.Width(s) > w {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > w {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	pad := strings.Repeat(" ", max(w-lipgloss.Width(s), 0))
	if align == columns.AlignRight {
		return pad + s
	}
	return s + pad
}

// Run starts the browser on the given terminal streams and blocks until
// the user quits or ctx is done.
func Run(ctx context.Context, session *views.Session, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(ctx, session),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
