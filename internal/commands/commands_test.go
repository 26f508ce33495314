package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/importer"
	"github.com/balkashynov/taigit/internal/models"
)

func openStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "taigit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSyncPlanSources(t *testing.T) {
	tests := []struct {
		target         string
		tracker, hosts bool
	}{
		{"sprints", true, false},
		{"tasks", true, false},
		{"commits", false, true},
		{"all", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			run, tracker, hosts, err := syncPlan(tt.target, false)
			require.NoError(t, err)
			assert.NotNil(t, run)
			assert.Equal(t, tt.tracker, tracker)
			assert.Equal(t, tt.hosts, hosts)
		})
	}

	_, _, _, err := syncPlan("issues", false)
	assert.Error(t, err)
}

func TestSyncWithoutSourcesReportsEveryEntity(t *testing.T) {
	store := openStore(t)
	session := importer.NewSession(store)

	run, _, _, err := syncPlan("all", false)
	require.NoError(t, err)
	report := run(context.Background(), session)

	var entities []string
	for _, e := range report.Entities {
		entities = append(entities, e.Entity)
	}
	assert.Equal(t, []string{"sprints", "members", "stories", "tasks", "commits"}, entities)
	assert.Equal(t, len(report.Entities), countFailed(report))

	tasks, _ := report.Entity("tasks")
	assert.ErrorIs(t, tasks.Err, importer.ErrDependencyFailed)
	commits, _ := report.Entity("commits")
	assert.ErrorIs(t, commits.Err, importer.ErrNoSource)
}

func TestCheckCSVEntities(t *testing.T) {
	assert.NoError(t, checkCSVEntities(map[string]string{"tasks": "t.csv", "stories": "https://x/us.csv"}))
	assert.Error(t, checkCSVEntities(map[string]string{"epics": "e.csv"}))
}

func TestCheckSite(t *testing.T) {
	name, err := checkSite(" GitHub ")
	require.NoError(t, err)
	assert.Equal(t, models.SiteGitHub, name)

	_, err = checkSite("bitbucket")
	assert.Error(t, err)
}

func TestTablesToClear(t *testing.T) {
	store := openStore(t)

	tables, err := tablesToClear(store, "commits")
	require.NoError(t, err)
	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name())
	}
	assert.Equal(t, []string{"github_commits", "gitlab_commits"}, names)

	tables, err = tablesToClear(store, "all")
	require.NoError(t, err)
	assert.Len(t, tables, 6)

	_, err = tablesToClear(store, "everything")
	assert.Error(t, err)
}

func TestLoadListingSortsSprintsByStart(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Sprints().Replace(ctx, []models.Sprint{
		{Name: "A later", Start: "04/01/2024"},
		{Name: "B earlier", Start: "03/01/2024"},
		{Name: "C undated"},
	}))

	data, table, err := loadListing(ctx, store, "sprints", "")
	require.NoError(t, err)
	rows := data.([]models.Sprint)
	assert.Equal(t, []string{"B earlier", "A later", "C undated"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})
	assert.Len(t, table.Rows, 3)

	_, _, err = loadListing(ctx, store, "commits", "taiga")
	assert.Error(t, err)
}
