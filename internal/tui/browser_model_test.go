package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/importer"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/parser"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m BrowserModel, msgs ...tea.Msg) (BrowserModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(BrowserModel)
	}
	return m, cmd
}

func taskRows() []db.TaskReportRow {
	us := 3
	alice := "alice"
	return []db.TaskReportRow{
		{Task: models.Task{ID: 101, TaskNum: 7, UsNum: &us, Assignee: &alice, Subject: "Login form"}},
		{Task: models.Task{ID: 102, TaskNum: 8, UsNum: &us, Subject: "Password reset", IsCoding: true}},
		{Task: models.Task{ID: 103, TaskNum: 9, Subject: "Write docs"}},
	}
}

func TestBrowserSearchFiltersRows(t *testing.T) {
	m := NewBrowserModel(TaskTable(taskRows()), nil)
	require.Len(t, m.visible, 3)

	m, _ = press(t, m, runes("/"))
	assert.True(t, m.searching)

	m, _ = press(t, m, runes("p"), runes("a"), runes("s"), runes("s"))
	require.Len(t, m.visible, 1)
	row, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "Task #8 Password reset", row.Title)

	// enter keeps the filter
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searching)
	assert.Len(t, m.visible, 1)

	// esc inside search clears it
	m, _ = press(t, m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.searching)
	assert.Len(t, m.visible, 3)
}

func TestBrowserToggleCoding(t *testing.T) {
	var calls []string
	toggle := func(taskID int, coding bool) error {
		calls = append(calls, fmt.Sprintf("%d=%v", taskID, coding))
		return nil
	}
	m := NewBrowserModel(TaskTable(taskRows()), toggle)

	m, cmd := press(t, m, runes("c"))
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())

	assert.Equal(t, []string{"101=true"}, calls)
	row, _ := m.Selected()
	assert.True(t, row.Coding)
	assert.Equal(t, "yes", row.Cells[len(row.Cells)-1])

	// second row starts as coding
	m, cmd = press(t, m, runes("j"), runes("c"))
	m, _ = press(t, m, cmd())
	assert.Equal(t, []string{"101=true", "102=false"}, calls)
	row, _ = m.Selected()
	assert.False(t, row.Coding)
	assert.Equal(t, "no", row.Cells[len(row.Cells)-1])
}

func TestBrowserToggleFailureKeepsRow(t *testing.T) {
	m := NewBrowserModel(TaskTable(taskRows()), func(int, bool) error {
		return errors.New("database is locked")
	})

	m, cmd := press(t, m, runes("c"))
	m, _ = press(t, m, cmd())

	row, _ := m.Selected()
	assert.False(t, row.Coding)
	assert.Contains(t, m.status, "database is locked")
}

func TestBrowserReadOnlyTableIgnoresToggle(t *testing.T) {
	m := NewBrowserModel(SprintTable([]models.Sprint{{Name: "Sprint 1"}}), nil)
	_, cmd := press(t, m, runes("c"))
	assert.Nil(t, cmd)
}

func TestBrowserPaging(t *testing.T) {
	var sprints []models.Sprint
	for i := range 25 {
		sprints = append(sprints, models.Sprint{Name: fmt.Sprintf("Sprint %02d", i)})
	}
	m := NewBrowserModel(SprintTable(sprints), nil)
	assert.Equal(t, 3, m.pageCount())

	m, _ = press(t, m, runes("l"))
	assert.Equal(t, 1, m.currentPage)
	assert.Equal(t, 10, m.selected)

	m, _ = press(t, m, runes("l"), runes("l"))
	assert.Equal(t, 2, m.currentPage)

	m, _ = press(t, m, runes("k"))
	assert.Equal(t, 19, m.selected)
	assert.Equal(t, 1, m.currentPage)
}

func TestBrowserQuit(t *testing.T) {
	m := NewBrowserModel(Table{Title: "Empty"}, nil)
	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTaskTableCells(t *testing.T) {
	table := TaskTable(taskRows())
	require.Len(t, table.Rows, 3)

	assert.Equal(t, []string{"#7", "Login form", "#3", "alice", "no", "no"}, table.Rows[0].Cells)
	assert.Equal(t, 101, table.Rows[0].TaskID)
	assert.Equal(t, "-", table.Rows[2].Cells[2])
	assert.True(t, table.Rows[1].Coding)
}

func TestFormatReport(t *testing.T) {
	anomaly := importer.Anomaly{
		Entity:  "tasks",
		Row:     "7",
		Anomaly: parser.Anomaly{Field: "assigned_to", Value: "99", Reason: "unknown member"},
	}
	out := FormatReport(importer.Report{Entities: []importer.EntityReport{
		{Entity: "tasks", Fetched: 3, Added: 1, Updated: 1, Unchanged: 1, Total: 3, Anomalies: []importer.Anomaly{anomaly}, Duration: 1500 * time.Millisecond},
		{Entity: "members", Err: errors.New("401 Unauthorized")},
	}})

	assert.Contains(t, out, "tasks: 3 fetched, 1 added, 1 updated, 1 unchanged, 0 retained (3 total) in 1.5s")
	assert.Contains(t, out, "1 anomalies")
	assert.Contains(t, out, "members: 401 Unauthorized")
}

func TestPlainTable(t *testing.T) {
	out := PlainTable(MemberTable([]models.Member{{Username: "alice"}, {Username: "bob"}}))
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
}
