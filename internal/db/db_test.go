package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/taigit/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "taigit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestTableReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tasks := []models.Task{
		{ID: 6, TaskNum: 11, UsNum: nil, Subject: "storyless"},
		{ID: 5, TaskNum: 10, UsNum: intPtr(3), Assignee: strPtr("bob"), IsCoding: true},
		{ID: 7, TaskNum: 9, UsNum: intPtr(3)},
	}
	require.NoError(t, s.Tasks().Replace(ctx, tasks))

	got, err := s.Tasks().Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// us_num ascending with storyless last, then task_num
	assert.Equal(t, []int{7, 5, 6}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, got[1].IsCoding)
	assert.Equal(t, "bob", *got[1].Assignee)
	assert.Nil(t, got[2].UsNum)

	// Replace swaps the content entirely
	require.NoError(t, s.Tasks().Replace(ctx, tasks[:1]))
	n, err := s.Tasks().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Tasks().Clear(ctx))
	got, err = s.Tasks().Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceFailureKeepsPreviousContent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Members().Replace(ctx, []models.Member{{Username: "alice", TaigaID: intPtr(1)}}))

	// duplicate primary key aborts the transaction
	err := s.Members().Replace(ctx, []models.Member{{Username: "bob"}, {Username: "bob"}})
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "members", perr.Table)

	got, err := s.Members().Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestCommitTablesAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	at := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)
	require.NoError(t, s.Commits(models.SiteGitHub).Replace(ctx, []models.Commit{
		{ID: "abc", Repo: "o/r", Site: models.SiteGitHub, Committer: "alice", Date: "03/14/2024", UTCTime: at, TaskNum: intPtr(42)},
	}))

	gh, err := s.Commits(models.SiteGitHub).Load(ctx)
	require.NoError(t, err)
	gl, err := s.Commits(models.SiteGitLab).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, gh, 1)
	assert.Empty(t, gl)

	latest, ok, err := s.LatestCommitTime(ctx, models.SiteGitHub)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, latest.Equal(at))

	_, ok, err = s.LatestCommitTime(ctx, models.SiteGitLab)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBranchCursors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	main := time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)
	dev := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveBranchCursors(ctx, models.SiteGitHub, map[string]time.Time{"main": main, "dev": dev}))
	require.NoError(t, s.SaveBranchCursors(ctx, models.SiteGitLab, map[string]time.Time{"main": dev}))

	cursors, err := s.BranchCursors(ctx, models.SiteGitHub)
	require.NoError(t, err)
	require.Len(t, cursors, 2)
	assert.True(t, cursors["main"].Equal(main))

	// a deleted branch loses its cursor, other sites are untouched
	require.NoError(t, s.SaveBranchCursors(ctx, models.SiteGitHub, map[string]time.Time{"main": main}))
	cursors, err = s.BranchCursors(ctx, models.SiteGitHub)
	require.NoError(t, err)
	assert.Len(t, cursors, 1)
	_, ok := cursors["dev"]
	assert.False(t, ok)

	gl, err := s.BranchCursors(ctx, models.SiteGitLab)
	require.NoError(t, err)
	assert.True(t, gl["main"].Equal(dev))
}

func TestUnknownTableIsRejected(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var rows []models.Task
	err := s.Select(ctx, "tasks; DROP TABLE tasks", &rows, "id = ?", 1)
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = s.Delete(ctx, "tasks", "")
	assert.Error(t, err)
}

func TestParametrizedOperations(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Insert(ctx, "sprints", &models.Sprint{Name: "Sprint 1", Start: "03/01/2024"}))
	require.NoError(t, s.Insert(ctx, "sprints", &models.Sprint{Name: "Robert'); DROP TABLE sprints;--"}))

	n, err := s.Update(ctx, "sprints", map[string]any{"closed": true}, "name = ?", "Sprint 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var sprints []models.Sprint
	require.NoError(t, s.Select(ctx, "sprints", &sprints, "closed = ?", true))
	require.Len(t, sprints, 1)
	assert.Equal(t, "Sprint 1", sprints[0].Name)

	n, err = s.Delete(ctx, "sprints", "name = ?", "Robert'); DROP TABLE sprints;--")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sprints = nil
	require.NoError(t, s.Select(ctx, "sprints", &sprints, ""))
	assert.Len(t, sprints, 1)
}

func TestSetCoding(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Tasks().Replace(ctx, []models.Task{{ID: 5, TaskNum: 10}}))

	require.NoError(t, s.SetCoding(ctx, 5, true))
	task, err := s.FindTaskByNum(ctx, 10)
	require.NoError(t, err)
	assert.True(t, task.IsCoding)

	assert.ErrorIs(t, s.SetCoding(ctx, 99, true), ErrNotFound)
	_, err = s.FindTaskByNum(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskReport(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UserStories().Replace(ctx, []models.UserStory{{ID: 1, UsNum: 3, Sprint: strPtr("Sprint 1")}}))
	require.NoError(t, s.Tasks().Replace(ctx, []models.Task{
		{ID: 5, TaskNum: 10, UsNum: intPtr(3)},
		{ID: 6, TaskNum: 11},
	}))
	now := time.Now().UTC()
	require.NoError(t, s.Commits(models.SiteGitHub).Replace(ctx, []models.Commit{
		{ID: "a", Repo: "o/r", Site: models.SiteGitHub, Committer: "x", UTCTime: now, TaskNum: intPtr(10)},
		{ID: "b", Repo: "o/r", Site: models.SiteGitHub, Committer: "x", UTCTime: now, TaskNum: intPtr(10)},
	}))
	require.NoError(t, s.Commits(models.SiteGitLab).Replace(ctx, []models.Commit{
		{ID: "c", Repo: "1", Site: models.SiteGitLab, Committer: "x", UTCTime: now, TaskNum: intPtr(10)},
	}))

	rows, err := s.TaskReport(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].ID)
	require.NotNil(t, rows[0].Sprint)
	assert.Equal(t, "Sprint 1", *rows[0].Sprint)
	assert.Equal(t, 3, rows[0].Commits)
	assert.Nil(t, rows[1].Sprint)
	assert.Equal(t, 0, rows[1].Commits)
}

func TestSitesAreObfuscated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveSite(ctx, models.Site{Site: models.SiteGitHub, Username: "alice", Token: "ghp_secret", Target: "o/r"}))

	var raw []models.Site
	require.NoError(t, s.Select(ctx, "sites", &raw, "site = ?", models.SiteGitHub))
	require.Len(t, raw, 1)
	assert.NotEqual(t, "ghp_secret", raw[0].Token)

	site, err := s.GetSite(ctx, models.SiteGitHub)
	require.NoError(t, err)
	assert.Equal(t, "alice", site.Username)
	assert.Equal(t, "ghp_secret", site.Token)
	assert.Equal(t, "o/r", site.Target)

	// saving again overwrites
	require.NoError(t, s.SaveSite(ctx, models.Site{Site: models.SiteGitHub, Username: "alice", Token: "rotated", Target: "o/r2"}))
	site, err = s.GetSite(ctx, models.SiteGitHub)
	require.NoError(t, err)
	assert.Equal(t, "rotated", site.Token)
	assert.Equal(t, "o/r2", site.Target)

	_, err = s.GetSite(ctx, models.SiteGitLab)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkProjectKeepsOneLinked(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LinkedProject(ctx)
	assert.ErrorIs(t, err, ErrNoLinkedProject)

	require.NoError(t, s.LinkProject(ctx, models.TaigaProject{ID: 1, Slug: "alpha", Name: "Alpha"}))
	require.NoError(t, s.LinkProject(ctx, models.TaigaProject{ID: 2, Slug: "beta", Name: "Beta"}))

	p, err := s.LinkedProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "beta", p.Slug)

	var linked []models.TaigaProject
	require.NoError(t, s.Select(ctx, "taiga_projects", &linked, "linked = ?", true))
	assert.Len(t, linked, 1)

	// relinking a known project flips it back
	require.NoError(t, s.LinkProject(ctx, models.TaigaProject{ID: 1, Slug: "alpha", Name: "Alpha"}))
	p, err = s.LinkedProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
}

func TestSyncRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.StartRun(ctx, "tasks")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, run, RunStats{Fetched: 3, Added: 2}, nil))

	failed, err := s.StartRun(ctx, "tasks")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, failed, RunStats{}, errors.New("boom")))

	last, err := s.LastSuccess(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)
	assert.Equal(t, 2, last.Added)
	assert.Equal(t, models.RunOK, last.Status)

	runs, err := s.RecentRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = s.LastSuccess(ctx, "sprints")
	assert.ErrorIs(t, err, ErrNotFound)
}
