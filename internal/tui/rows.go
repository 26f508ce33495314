package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/models"
)

const codingHeader = "CODING"

func orNone(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrNone(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// setCodingCell keeps the CODING column in step with row.Coding
func setCodingCell(columns []Column, row *Row) {
	for i, c := range columns {
		if c.Header == codingHeader && i < len(row.Cells) {
			row.Cells[i] = yesNo(row.Coding)
		}
	}
}

func SprintTable(rows []models.Sprint) Table {
	t := Table{
		Title:   "Sprints",
		Columns: []Column{{Header: "NAME"}, {Header: "START", Width: 10}, {Header: "END", Width: 10}, {Header: "CLOSED", Width: 6}},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, Row{
			Cells: []string{s.Name, s.Start, s.End, yesNo(s.Closed)},
			Title: s.Name,
			Details: []Field{
				{"Start", s.Start},
				{"End", s.End},
				{"Closed", yesNo(s.Closed)},
			},
		})
	}
	return t
}

func MemberTable(rows []models.Member) Table {
	t := Table{
		Title:   "Members",
		Columns: []Column{{Header: "USERNAME"}, {Header: "TAIGA ID", Width: 8}},
	}
	for _, m := range rows {
		t.Rows = append(t.Rows, Row{
			Cells:   []string{m.Username, intOrNone(m.TaigaID)},
			Title:   m.Username,
			Details: []Field{{"Taiga ID", intOrNone(m.TaigaID)}},
		})
	}
	return t
}

func UserStoryTable(rows []models.UserStory) Table {
	t := Table{
		Title: "User Stories",
		Columns: []Column{
			{Header: "REF", Width: 6},
			{Header: "SUBJECT"},
			{Header: "SPRINT", Width: 12},
			{Header: "PTS", Width: 4},
			{Header: "DONE", Width: 4},
		},
	}
	for _, u := range rows {
		points := strconv.FormatFloat(u.Points, 'f', -1, 64)
		t.Rows = append(t.Rows, Row{
			Cells: []string{fmt.Sprintf("#%d", u.UsNum), u.Subject, orNone(u.Sprint), points, yesNo(u.IsComplete)},
			Title: fmt.Sprintf("US #%d %s", u.UsNum, u.Subject),
			Details: []Field{
				{"Id", strconv.Itoa(u.ID)},
				{"Sprint", orNone(u.Sprint)},
				{"Points", points},
				{"Complete", yesNo(u.IsComplete)},
			},
		})
	}
	return t
}

// TaskTable shows tasks with their sprint and the commits referencing them
func TaskTable(rows []db.TaskReportRow) Table {
	t := Table{
		Title: "Tasks",
		Columns: []Column{
			{Header: "REF", Width: 6},
			{Header: "SUBJECT"},
			{Header: "US", Width: 5},
			{Header: "ASSIGNEE", Width: 12},
			{Header: "DONE", Width: 4},
			{Header: codingHeader, Width: 6},
		},
	}
	for _, r := range rows {
		story := "-"
		if r.UsNum != nil {
			story = fmt.Sprintf("#%d", *r.UsNum)
		}
		t.Rows = append(t.Rows, Row{
			Cells: []string{fmt.Sprintf("#%d", r.TaskNum), r.Subject, story, orNone(r.Assignee), yesNo(r.IsComplete), yesNo(r.IsCoding)},
			Title: fmt.Sprintf("Task #%d %s", r.TaskNum, r.Subject),
			Details: []Field{
				{"Id", strconv.Itoa(r.ID)},
				{"User story", intOrNone(r.UsNum)},
				{"Sprint", orNone(r.Sprint)},
				{"Assignee", orNone(r.Assignee)},
				{"Complete", yesNo(r.IsComplete)},
				{"Commits", strconv.Itoa(r.Commits)},
			},
			TaskID: r.ID,
			Coding: r.IsCoding,
		})
	}
	return t
}

func CommitTable(site string, rows []models.Commit) Table {
	t := Table{
		Title: "Commits (" + site + ")",
		Columns: []Column{
			{Header: "SHA", Width: 8},
			{Header: "DATE", Width: 10},
			{Header: "COMMITTER", Width: 12},
			{Header: "TASK", Width: 6},
			{Header: "MESSAGE"},
		},
	}
	for _, c := range rows {
		short := c.ID
		if len(short) > 8 {
			short = short[:8]
		}
		task := ""
		if c.TaskNum != nil {
			task = fmt.Sprintf("#%d", *c.TaskNum)
		}
		firstLine, _, _ := strings.Cut(c.Message, "\n")
		t.Rows = append(t.Rows, Row{
			Cells: []string{short, c.Date, c.Committer, task, firstLine},
			Title: firstLine,
			Details: []Field{
				{"Commit", c.ID},
				{"Repository", c.Repo},
				{"Date", c.Date},
				{"UTC", c.UTCTime.UTC().Format("2006-01-02 15:04:05")},
				{"Committer", c.Committer},
				{"Task", intOrNone(c.TaskNum)},
				{"URL", c.URL},
			},
		})
	}
	return t
}

// RunTable lists recent sync runs, newest first
func RunTable(runs []models.SyncRun) Table {
	t := Table{
		Title: "Sync runs",
		Columns: []Column{
			{Header: "STARTED", Width: 16},
			{Header: "ENTITY"},
			{Header: "STATUS", Width: 7},
			{Header: "FETCHED", Width: 7},
			{Header: "ADDED", Width: 5},
			{Header: "UPDATED", Width: 7},
		},
	}
	for _, r := range runs {
		started := r.StartedAt.Local().Format("2006-01-02 15:04")
		details := []Field{
			{"Run", r.ID},
			{"Duration", formatDuration(time.Duration(r.DurationSeconds) * time.Second)},
			{"Retained", strconv.Itoa(r.Retained)},
			{"Anomalies", strconv.Itoa(r.Anomalies)},
			{"Error", r.Error},
		}
		t.Rows = append(t.Rows, Row{
			Cells:   []string{started, r.Entity, r.Status, strconv.Itoa(r.Fetched), strconv.Itoa(r.Added), strconv.Itoa(r.Updated)},
			Title:   fmt.Sprintf("%s at %s", r.Entity, started),
			Details: details,
		})
	}
	return t
}
