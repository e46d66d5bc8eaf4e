// Package browser is an interactive catalog browser: a table of variants, a
// pane with the selected variant's OpenSCAD definitions, and marking of
// variants to render.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"

	"github.com/rshade/keycapgen/internal/catalog"
	"github.com/rshade/keycapgen/internal/keycap"
	"github.com/rshade/keycapgen/internal/tui"
)

// Layout defaults, used until the first WindowSizeMsg.
const (
	defaultWidth  = 120
	defaultHeight = 30
	minTableRows  = 5
	chromeHeight  = 4 // title, blank, footer, filter
	markGlyph     = "●"
)

// Column widths.
const (
	colMark    = 2
	colName    = 24
	colPreset  = 18
	colSize    = 10
	colLegends = 16
	colFile    = 28
)

// Key bindings not handled by the table.
const (
	keyQuit    = "q"
	keyCtrlC   = "ctrl+c"
	keyEnter   = "enter"
	keySpace   = " "
	keySlash   = "/"
	keyEsc     = "esc"
	keyMarkAll = "a"
)

// ErrAborted is returned by Run when the user leaves with ctrl+c.
var ErrAborted = errors.New("browser aborted")

// Model is the Bubble Tea model for the catalog browser.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type Model struct {
	title     string
	all       []catalog.Resolved
	rows      []catalog.Resolved // after filtering
	marked    map[string]bool
	table     table.Model
	filter    textinput.Model
	filtering bool
	width     int
	height    int
	quitting  bool
	aborted   bool
	fold      cases.Caser
}

// New builds a browser over variants. title is shown above the table.
func New(title string, variants []catalog.Resolved) Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter by name"

	m := Model{
		title:  title,
		all:    variants,
		rows:   variants,
		marked: make(map[string]bool),
		filter: ti,
		width:  defaultWidth,
		height: defaultHeight,
		fold:   cases.Fold(),
	}
	m.table = m.buildTable()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuild()
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit:
		m.quitting = true
		return m, tea.Quit
	case keyCtrlC:
		return m.abort()
	case keyEnter, keySpace:
		if v, ok := m.current(); ok {
			name := v.Params.ResolvedName()
			if m.marked[name] {
				delete(m.marked, name)
			} else {
				m.marked[name] = true
			}
			m.refreshRows()
		}
		return m, nil
	case keyMarkAll:
		for _, v := range m.rows {
			m.marked[v.Params.ResolvedName()] = true
		}
		m.refreshRows()
		return m, nil
	case keySlash:
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case keyEsc:
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter, keyEsc:
		m.filtering = false
		m.filter.Blur()
		if msg.String() == keyEsc {
			m.filter.SetValue("")
		}
		m.applyFilter()
		return m, nil
	case keyCtrlC:
		return m.abort()
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// abort quits without confirming the marks.
func (m Model) abort() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.aborted = true
	return m, tea.Quit
}

// Aborted reports whether the user left with ctrl+c instead of q.
func (m Model) Aborted() bool {
	return m.aborted
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := tui.TitleStyle.Render(m.title) + " " +
		tui.MutedStyle.Render(fmt.Sprintf("%d variants, %d marked", len(m.all), len(m.marked)))

	detail := m.renderDetail()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), " ", detail)

	footer := tui.MutedStyle.Render("↑/↓ j/k move • enter mark • a mark all • / filter • q done • ctrl+c cancel")
	if m.filtering || m.filter.Value() != "" {
		footer = m.filter.View() + "\n" + footer
	}
	return title + "\n\n" + body + "\n" + footer
}

// Marked returns the marked variant names in catalog order.
func (m Model) Marked() []string {
	var out []string
	for _, v := range m.all {
		name := v.Params.ResolvedName()
		if m.marked[name] {
			out = append(out, name)
		}
	}
	return out
}

func (m Model) current() (catalog.Resolved, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return catalog.Resolved{}, false
	}
	return m.rows[i], true
}

func (m Model) renderDetail() string {
	v, ok := m.current()
	if !ok {
		return tui.PaneStyle.Render(tui.MutedStyle.Render("no variant selected"))
	}

	width := m.width - tableWidth() - 6
	if width < 20 {
		width = 20
	}
	lines := []string{tui.TitleStyle.Render(v.Params.ResolvedName())}
	limit := m.tableHeight() - 1
	for i, d := range v.Params.Definitions() {
		if i >= limit {
			lines = append(lines, tui.MutedStyle.Render("…"))
			break
		}
		line := tui.LabelStyle.Render(d.Name+"=") + tui.ValueStyle.Render(d.Value)
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(line))
	}
	return tui.PaneStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) applyFilter() {
	q := m.fold.String(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		m.rows = m.all
	} else {
		m.rows = nil
		for _, v := range m.all {
			if strings.Contains(m.fold.String(v.Params.ResolvedName()), q) {
				m.rows = append(m.rows, v)
			}
		}
	}
	m.rebuild()
}

func (m *Model) rebuild() {
	cursor := m.table.Cursor()
	m.table = m.buildTable()
	if cursor >= 0 && cursor < len(m.rows) {
		m.table.SetCursor(cursor)
	}
}

func (m *Model) refreshRows() {
	m.table.SetRows(m.tableRows())
}

func (m Model) tableHeight() int {
	h := m.height - chromeHeight
	if h < minTableRows {
		return minTableRows
	}
	return h
}

func tableWidth() int {
	return colMark + colName + colPreset + colSize + colLegends + colFile + 12
}

func (m Model) buildTable() table.Model {
	columns := []table.Column{
		{Title: "", Width: colMark},
		{Title: "Name", Width: colName},
		{Title: "Preset", Width: colPreset},
		{Title: "Size", Width: colSize},
		{Title: "Legends", Width: colLegends},
		{Title: "File", Width: colFile},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.tableRows()),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)
	s := table.DefaultStyles()
	s.Header = tui.TableHeaderStyle
	s.Selected = tui.TableSelectedStyle
	t.SetStyles(s)
	return t
}

func (m Model) tableRows() []table.Row {
	rows := make([]table.Row, len(m.rows))
	for i, v := range m.rows {
		mark := ""
		if m.marked[v.Params.ResolvedName()] {
			mark = markGlyph
		}
		rows[i] = table.Row{
			mark,
			v.Params.ResolvedName(),
			v.Preset,
			Size(v.Params),
			Legends(v.Params),
			v.Params.FileName(),
		}
	}
	return rows
}

// Size renders the key footprint, e.g. "1.25U" or "1×2U" for vertical keys.
func Size(p keycap.Params) string {
	l := strconv.FormatFloat(keycap.Units(p.KeyLength), 'f', -1, 64)
	w := keycap.Units(p.KeyWidth)
	if w == 1 {
		return l + "U"
	}
	return l + "×" + strconv.FormatFloat(w, 'f', -1, 64) + "U"
}

// Legends joins the non-empty legends with spaces.
func Legends(p keycap.Params) string {
	var out []string
	for _, l := range p.Legends {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, " ")
}

// Run shows the browser until the user quits and returns the marked names.
// Leaving with ctrl+c returns ErrAborted and no names.
func Run(ctx context.Context, title string, variants []catalog.Resolved) ([]string, error) {
	p := tea.NewProgram(New(title, variants), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running browser: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected browser model %T", final)
	}
	if m.Aborted() {
		return nil, ErrAborted
	}
	return m.Marked(), nil
}
