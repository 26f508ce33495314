// Package export writes entity tables as CSV for spreadsheets.
// Task references become =HYPERLINK(...) formula cells.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/balkashynov/taigit/internal/models"
)

// DefaultWebURL is the public Taiga web app
const DefaultWebURL = "https://tree.taiga.io"

// Linker builds Taiga web links for one project
type Linker struct {
	WebURL string
	Slug   string
}

// TaskURL links to a task by ref; empty without a project
func (l Linker) TaskURL(ref int) string {
	return l.url("task", ref)
}

// StoryURL links to a user story by ref
func (l Linker) StoryURL(ref int) string {
	return l.url("us", ref)
}

func (l Linker) url(kind string, ref int) string {
	if l.Slug == "" {
		return ""
	}
	base := l.WebURL
	if base == "" {
		base = DefaultWebURL
	}
	return fmt.Sprintf("%s/project/%s/%s/%d", strings.TrimRight(base, "/"), l.Slug, kind, ref)
}

// Hyperlink returns a spreadsheet formula cell; the label alone when url is empty
func Hyperlink(url, label string) string {
	if url == "" {
		return label
	}
	return fmt.Sprintf(`=HYPERLINK("%s","%s")`, quote(url), quote(label))
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// text keeps free text from being evaluated as a formula
func text(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// Sheet is one exported table
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Write writes the sheet as CSV
func (s Sheet) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(s.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the sheet to path, creating parent directories
func WriteFile(path string, s Sheet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	return f.Close()
}

func SprintSheet(rows []models.Sprint) Sheet {
	s := Sheet{Header: []string{"Sprint", "Start", "End", "Closed"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []string{text(r.Name), r.Start, r.End, strconv.FormatBool(r.Closed)})
	}
	return s
}

func MemberSheet(rows []models.Member) Sheet {
	s := Sheet{Header: []string{"Member", "Taiga ID"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []string{text(r.Username), optionalInt(r.TaigaID)})
	}
	return s
}

func UserStorySheet(rows []models.UserStory, l Linker) Sheet {
	s := Sheet{Header: []string{"User Story", "Subject", "Sprint", "Points", "Complete"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []string{
			Hyperlink(l.StoryURL(r.UsNum), fmt.Sprintf("US-%d", r.UsNum)),
			text(r.Subject),
			text(optional(r.Sprint)),
			strconv.FormatFloat(r.Points, 'f', -1, 64),
			strconv.FormatBool(r.IsComplete),
		})
	}
	return s
}

func TaskSheet(rows []models.Task, l Linker) Sheet {
	s := Sheet{Header: []string{"Task", "Subject", "User Story", "Assignee", "Complete", "Coding"}}
	for _, r := range rows {
		story := ""
		if r.UsNum != nil {
			story = Hyperlink(l.StoryURL(*r.UsNum), fmt.Sprintf("US-%d", *r.UsNum))
		}
		s.Rows = append(s.Rows, []string{
			Hyperlink(l.TaskURL(r.TaskNum), fmt.Sprintf("Task-%d", r.TaskNum)),
			text(r.Subject),
			story,
			text(optional(r.Assignee)),
			strconv.FormatBool(r.IsComplete),
			strconv.FormatBool(r.IsCoding),
		})
	}
	return s
}

func CommitSheet(rows []models.Commit, l Linker) Sheet {
	s := Sheet{Header: []string{"Commit", "Date", "Committer", "Task", "Message", "Repository"}}
	for _, r := range rows {
		task := ""
		if r.TaskNum != nil {
			task = Hyperlink(l.TaskURL(*r.TaskNum), fmt.Sprintf("Task-%d", *r.TaskNum))
		}
		short := r.ID
		if len(short) > 8 {
			short = short[:8]
		}
		s.Rows = append(s.Rows, []string{
			Hyperlink(r.URL, short),
			r.Date,
			text(r.Committer),
			task,
			text(firstLine(r.Message)),
			r.Repo,
		})
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
