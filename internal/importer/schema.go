package importer

import (
	"cmp"
	"time"

	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/parser"
	"github.com/balkashynov/taigit/internal/reconcile"
)

// SprintSchema orders sprints by start date, undated last
var SprintSchema = reconcile.Schema[models.Sprint, string]{
	Key:       func(s models.Sprint) string { return s.Name },
	Normalize: func(s *models.Sprint) { s.Normalize() },
	Compare: func(a, b models.Sprint) int {
		return compareDates(parser.ParseDisplayDate(a.Start), parser.ParseDisplayDate(b.Start))
	},
	Keep: reconcile.KeepFirst,
}

// MemberSchema orders members by label. A member whose label changed
// upstream is matched on the Taiga user id.
var MemberSchema = reconcile.Schema[models.Member, string]{
	Key:  func(m models.Member) string { return m.Username },
	Keep: reconcile.KeepFirst,
	RemoteID: func(m models.Member) (int, bool) {
		if m.TaigaID == nil {
			return 0, false
		}
		return *m.TaigaID, true
	},
}

// UserStorySchema orders stories by sprint (backlog last), then ref
var UserStorySchema = reconcile.Schema[models.UserStory, int]{
	Key:       func(u models.UserStory) int { return u.ID },
	Normalize: func(u *models.UserStory) { u.Normalize() },
	Compare: func(a, b models.UserStory) int {
		if c := reconcile.ComparePtr(a.Sprint, b.Sprint); c != 0 {
			return c
		}
		return cmp.Compare(a.UsNum, b.UsNum)
	},
	Keep: reconcile.KeepFirst,
}

// TaskSchema orders tasks by user story (storyless last), then ref.
// is_coding is local: kept from the persisted row, false on new rows.
var TaskSchema = reconcile.Schema[models.Task, int]{
	Key:       func(t models.Task) int { return t.ID },
	Normalize: func(t *models.Task) { t.Normalize() },
	CopyLocal: func(dst *models.Task, prior models.Task) { dst.IsCoding = prior.IsCoding },
	Defaults:  func(t *models.Task) { t.IsCoding = false },
	Compare: func(a, b models.Task) int {
		if c := reconcile.ComparePtr(a.UsNum, b.UsNum); c != 0 {
			return c
		}
		return cmp.Compare(a.TaskNum, b.TaskNum)
	},
	Keep: reconcile.KeepFirst,
}

// CommitSchema orders commits by time. A commit seen on several branches
// keeps its last occurrence.
var CommitSchema = reconcile.Schema[models.Commit, string]{
	Key:       func(c models.Commit) string { return c.ID },
	Normalize: func(c *models.Commit) { c.Normalize() },
	Compare:   func(a, b models.Commit) int { return a.UTCTime.Compare(b.UTCTime) },
	Keep:      reconcile.KeepLast,
}

// compareDates orders zero times last
func compareDates(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	default:
		return a.Compare(b)
	}
}
