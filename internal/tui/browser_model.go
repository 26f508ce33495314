package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Column is one table column; Width 0 takes the remaining space
type Column struct {
	Header string
	Width  int
}

// Field is one label/value line of the detail panel
type Field struct {
	Label string
	Value string
}

// Row is one record shown in the browser
type Row struct {
	Cells   []string
	Title   string
	Details []Field

	// TaskID is set for task rows; only those can toggle Coding
	TaskID int
	Coding bool
}

// Table is what the browser displays
type Table struct {
	Title   string
	Columns []Column
	Rows    []Row
}

// ToggleFunc persists the coding annotation of a task
type ToggleFunc func(taskID int, coding bool) error

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Search   key.Binding
	Coding   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Search, k.Coding, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeys(canToggle bool) keyMap {
	k := keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Coding:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle coding")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
	}
	k.Coding.SetEnabled(canToggle)
	return k
}

// codingToggledMsg reports the result of persisting a toggle
type codingToggledMsg struct {
	row    int
	coding bool
	err    error
}

// BrowserModel is a paged, searchable table with a detail panel
type BrowserModel struct {
	width  int
	height int

	table    Table
	visible  []int // indexes into table.Rows matching the search
	selected int   // index into visible

	searching bool
	search    textinput.Model

	currentPage int
	rowsPerPage int

	keys   keyMap
	help   help.Model
	toggle ToggleFunc
	status string
}

// NewBrowserModel creates a browser; toggle may be nil for read-only tables
func NewBrowserModel(table Table, toggle ToggleFunc) BrowserModel {
	search := textinput.New()
	search.Prompt = "Search: "
	search.CharLimit = 100

	m := BrowserModel{
		table:       table,
		search:      search,
		rowsPerPage: 10,
		keys:        defaultKeys(toggle != nil),
		help:        help.New(),
		toggle:      toggle,
	}
	m.applyFilter()
	return m
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// header, column headers, pagination, help, borders and margins
		m.rowsPerPage = max(m.height-12, 3)
		m.currentPage = m.selected / m.rowsPerPage
		return m, nil

	case codingToggledMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		row := &m.table.Rows[msg.row]
		row.Coding = msg.coding
		setCodingCell(m.table.Columns, row)
		if msg.coding {
			m.status = fmt.Sprintf("%s marked as coding", row.Title)
		} else {
			m.status = fmt.Sprintf("%s no longer coding", row.Title)
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			return m.moveSelection(-1), nil
		case key.Matches(msg, m.keys.Down):
			return m.moveSelection(1), nil
		case key.Matches(msg, m.keys.PrevPage):
			return m.changePage(-1), nil
		case key.Matches(msg, m.keys.NextPage):
			return m.changePage(1), nil
		case key.Matches(msg, m.keys.Search):
			m.searching = true
			cmd := m.search.Focus()
			return m, cmd
		case key.Matches(msg, m.keys.Coding):
			return m, m.toggleSelected()
		}
	}

	return m, nil
}

// handleSearchKeys filters as the query is typed. Enter keeps the filter,
// esc clears it.
func (m BrowserModel) handleSearchKeys(msg tea.KeyMsg) (BrowserModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *BrowserModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	m.visible = nil
	for i, row := range m.table.Rows {
		if query == "" || strings.Contains(strings.ToLower(strings.Join(row.Cells, " ")+" "+row.Title), query) {
			m.visible = append(m.visible, i)
		}
	}
	m.selected = 0
	m.currentPage = 0
}

func (m BrowserModel) toggleSelected() tea.Cmd {
	if m.toggle == nil || len(m.visible) == 0 {
		return nil
	}
	idx := m.visible[m.selected]
	row := m.table.Rows[idx]
	if row.TaskID == 0 {
		return nil
	}

	toggle := m.toggle
	coding := !row.Coding
	return func() tea.Msg {
		return codingToggledMsg{row: idx, coding: coding, err: toggle(row.TaskID, coding)}
	}
}

func (m BrowserModel) moveSelection(delta int) BrowserModel {
	next := m.selected + delta
	if next < 0 || next >= len(m.visible) {
		return m
	}
	m.selected = next
	m.currentPage = m.selected / m.rowsPerPage
	return m
}

func (m BrowserModel) changePage(delta int) BrowserModel {
	pages := m.pageCount()
	next := m.currentPage + delta
	if next < 0 || next >= pages {
		return m
	}
	m.currentPage = next
	m.selected = m.currentPage * m.rowsPerPage
	return m
}

func (m BrowserModel) pageCount() int {
	if len(m.visible) == 0 {
		return 1
	}
	return (len(m.visible) + m.rowsPerPage - 1) / m.rowsPerPage
}

// Selected returns the selected row, if any
func (m BrowserModel) Selected() (Row, bool) {
	if len(m.visible) == 0 {
		return Row{}, false
	}
	return m.table.Rows[m.visible[m.selected]], true
}

func (m BrowserModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTable(leftWidth),
		" ",
		m.renderDetails(rightWidth),
	)

	bottom := m.renderHelpBar()
	if m.searching {
		bottom = m.renderSearchBar()
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", content, "", bottom)
}

// columnWidths fits the columns into width, giving flexible columns the rest
func (m BrowserModel) columnWidths(width int) []int {
	widths := make([]int, len(m.table.Columns))
	fixed, flexible := 0, 0
	for i, c := range m.table.Columns {
		widths[i] = c.Width
		fixed += c.Width
		if c.Width == 0 {
			flexible++
		}
	}

	if flexible > 0 {
		rest := (width - 4 - fixed - len(widths)) / flexible
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = max(rest, 10)
			}
		}
	}
	return widths
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width > 3 {
		return string(r[:width-3]) + "..."
	}
	return string(r[:width])
}

func (m BrowserModel) renderTable(width int) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright))
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", m.table.Title, len(m.visible))))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true)
		b.WriteString(emptyStyle.Render("No records found"))
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Width(width).
			Render(b.String())
	}

	widths := m.columnWidths(width)
	var headers []string
	for i, c := range m.table.Columns {
		headers = append(headers, fmt.Sprintf("%-*s", widths[i], truncate(c.Header, widths[i])))
	}
	columnHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Padding(0, 1)
	b.WriteString(columnHeaderStyle.Render(strings.Join(headers, " ")))
	b.WriteString("\n\n")

	start := m.currentPage * m.rowsPerPage
	end := min(start+m.rowsPerPage, len(m.visible))
	for i := start; i < end; i++ {
		row := m.table.Rows[m.visible[i]]

		var cells []string
		for j := range m.table.Columns {
			cell := ""
			if j < len(row.Cells) {
				cell = row.Cells[j]
			}
			cells = append(cells, fmt.Sprintf("%-*s", widths[j], truncate(cell, widths[j])))
		}
		line := strings.Join(cells, " ")
		if row.Coding {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render(line)
		}

		if i == m.selected {
			selectedStyle := lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).
				Bold(true).
				Padding(0, 1)
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(" " + line)
		}
		b.WriteString("\n")
	}

	if pages := m.pageCount(); pages > 1 {
		pageStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).
			Width(width - 2).
			MarginTop(1)
		b.WriteString(pageStyle.Render(fmt.Sprintf("Page %d/%d", m.currentPage+1, pages)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

func (m BrowserModel) renderDetails(width int) string {
	var b strings.Builder

	row, ok := m.Selected()
	if !ok {
		logoStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccentMain)).
			Bold(true).
			Align(lipgloss.Center).
			Width(width)
		b.WriteString(logoStyle.Render("taigit"))
	} else {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).Width(width)
		b.WriteString(titleStyle.Render(row.Title))
		b.WriteString("\n\n")

		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
		valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
		nullStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Italic(true)
		for _, f := range row.Details {
			b.WriteString(labelStyle.Render(f.Label + ": "))
			if f.Value == "" {
				b.WriteString(nullStyle.Render("none"))
			} else {
				b.WriteString(valueStyle.Render(f.Value))
			}
			b.WriteString("\n")
		}

		if row.TaskID != 0 {
			coding := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Render("no")
			if row.Coding {
				coding = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Bold(true).Render("yes")
			}
			b.WriteString(labelStyle.Render("Coding: "))
			b.WriteString(coding)
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render(m.status))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

func (m BrowserModel) renderSearchBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Width(m.width - 2).
		Render(m.search.View())
}

func (m BrowserModel) renderHelpBar() string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(m.width).
		Render(m.help.View(m.keys))
}
