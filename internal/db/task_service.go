package db

import (
	"context"
	"fmt"
	"time"

	"github.com/balkashynov/taigit/internal/models"
)

// Sprints returns the sprint repository
func (s *Store) Sprints() *Table[models.Sprint] {
	return newTable[models.Sprint](s, models.Sprint{}.TableName(), "name ASC")
}

// Members returns the member repository
func (s *Store) Members() *Table[models.Member] {
	return newTable[models.Member](s, models.Member{}.TableName(), "username ASC")
}

// UserStories returns the user story repository
func (s *Store) UserStories() *Table[models.UserStory] {
	return newTable[models.UserStory](s, models.UserStory{}.TableName(), "sprint IS NULL, sprint ASC, us_num ASC")
}

// Tasks returns the task repository
func (s *Store) Tasks() *Table[models.Task] {
	return newTable[models.Task](s, models.Task{}.TableName(), "us_num IS NULL, us_num ASC, task_num ASC")
}

// Commits returns the commit repository of a host site
func (s *Store) Commits(site string) *Table[models.Commit] {
	return newTable[models.Commit](s, models.CommitTable(site), "utc_time ASC, id ASC")
}

// SetCoding sets the local is_coding annotation of a task
func (s *Store) SetCoding(ctx context.Context, taskID int, coding bool) error {
	n, err := s.Update(ctx, models.Task{}.TableName(), map[string]any{"is_coding": coding}, "id = ?", taskID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// FindTaskByNum looks a task up by its Taiga ref number
func (s *Store) FindTaskByNum(ctx context.Context, taskNum int) (*models.Task, error) {
	var tasks []models.Task
	if err := s.Select(ctx, models.Task{}.TableName(), &tasks, "task_num = ?", taskNum); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task #%d: %w", taskNum, ErrNotFound)
	}
	return &tasks[0], nil
}

// LatestCommitTime returns the newest persisted commit timestamp of a site.
// ok is false when the table is empty.
func (s *Store) LatestCommitTime(ctx context.Context, site string) (t time.Time, ok bool, err error) {
	var commits []models.Commit
	err = s.SelectJoin(ctx, models.CommitTable(site), &commits, Query{Order: "utc_time DESC", Limit: 1})
	if err != nil || len(commits) == 0 {
		return time.Time{}, false, err
	}
	return commits[0].UTCTime.UTC(), true, nil
}

// TaskReportRow is a task together with the sprint of its user story
type TaskReportRow struct {
	models.Task
	Sprint  *string `json:"sprint"`
	Commits int     `json:"commits"`
}

// TaskReport joins tasks with their user story's sprint and counts referencing commits
func (s *Store) TaskReport(ctx context.Context) ([]TaskReportRow, error) {
	var rows []TaskReportRow
	err := s.SelectJoin(ctx, models.Task{}.TableName(), &rows, Query{
		Columns: "tasks.*, user_stories.sprint AS sprint, " +
			"(SELECT COUNT(*) FROM github_commits gc WHERE gc.task_num = tasks.task_num) + " +
			"(SELECT COUNT(*) FROM gitlab_commits lc WHERE lc.task_num = tasks.task_num) AS commits",
		Join:  "LEFT JOIN user_stories ON user_stories.us_num = tasks.us_num",
		Order: "tasks.us_num IS NULL, tasks.us_num ASC, tasks.task_num ASC",
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
