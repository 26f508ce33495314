package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/taigit/internal/models"
)

func intPtr(n int) *int { return &n }

func TestHyperlink(t *testing.T) {
	assert.Equal(t, `=HYPERLINK("https://x/1","Task-1")`, Hyperlink("https://x/1", "Task-1"))
	assert.Equal(t, `=HYPERLINK("https://x","say ""hi""")`, Hyperlink("https://x", `say "hi"`))
	assert.Equal(t, "Task-1", Hyperlink("", "Task-1"))
}

func TestTextEscapesFormulaPrefixes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1+cmd", "'+1+cmd"},
		{"-2+3", "'-2+3"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\t=1", "'\t=1"},
		{"\r=1", "'\r=1"},
		{"Fix login", "Fix login"},
		{"a=b", "a=b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, text(tt.in), "%q", tt.in)
	}
}

func TestLinker(t *testing.T) {
	l := Linker{WebURL: "https://taiga.example/", Slug: "team"}
	assert.Equal(t, "https://taiga.example/project/team/task/10", l.TaskURL(10))
	assert.Equal(t, "https://taiga.example/project/team/us/3", l.StoryURL(3))

	assert.Equal(t, "https://tree.taiga.io/project/team/task/1", Linker{Slug: "team"}.TaskURL(1))
	assert.Equal(t, "", Linker{}.TaskURL(1))
}

func TestTaskSheetRoundTripsThroughCSV(t *testing.T) {
	sheet := TaskSheet([]models.Task{
		{ID: 5, TaskNum: 10, UsNum: intPtr(3), Subject: "=SUM(A1)", IsCoding: true},
		{ID: 6, TaskNum: 11, Subject: "Chore, with comma"},
	}, Linker{Slug: "team"})

	var buf bytes.Buffer
	require.NoError(t, sheet.Write(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, sheet.Header, records[0])
	assert.Equal(t, `=HYPERLINK("https://tree.taiga.io/project/team/task/10","Task-10")`, records[1][0])
	assert.Equal(t, "'=SUM(A1)", records[1][1])
	assert.Equal(t, `=HYPERLINK("https://tree.taiga.io/project/team/us/3","US-3")`, records[1][2])
	assert.Equal(t, "true", records[1][5])
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "Chore, with comma", records[2][1])
}

func TestCommitSheet(t *testing.T) {
	sheet := CommitSheet([]models.Commit{{
		ID:        "0123456789abcdef",
		Date:      "03/14/2024",
		UTCTime:   time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC),
		Committer: "alice",
		TaskNum:   intPtr(42),
		Message:   "Fixed Task-42 bug\n\nlong body",
		URL:       "https://github.com/o/r/commit/0123456789abcdef",
		Repo:      "o/r",
	}}, Linker{})

	require.Len(t, sheet.Rows, 1)
	row := sheet.Rows[0]
	assert.Equal(t, `=HYPERLINK("https://github.com/o/r/commit/0123456789abcdef","01234567")`, row[0])
	assert.Equal(t, "Task-42", row[3])
	assert.Equal(t, "Fixed Task-42 bug", row[4])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sprints.csv")
	require.NoError(t, WriteFile(path, SprintSheet([]models.Sprint{{Name: "Sprint 1", Start: "03/01/2024", Closed: true}})))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Sprint,Start,End,Closed\nSprint 1,03/01/2024,,true\n", string(b))
}
