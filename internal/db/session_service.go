package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/taigit/internal/models"
)

// RunStats are the counters recorded when a sync run finishes
type RunStats struct {
	Fetched   int
	Added     int
	Updated   int
	Retained  int
	Anomalies int
}

// StartRun records the start of an import of one entity
func (s *Store) StartRun(ctx context.Context, entity string) (*models.SyncRun, error) {
	run := models.SyncRun{
		ID:        uuid.New().String(),
		Entity:    entity,
		StartedAt: time.Now().UTC(),
		Status:    models.RunRunning,
	}

	if err := s.Insert(ctx, run.TableName(), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// FinishRun stops a run, recording its counters and failure if any
func (s *Store) FinishRun(ctx context.Context, run *models.SyncRun, stats RunStats, runErr error) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.DurationSeconds = int(now.Sub(run.StartedAt).Seconds())
	run.Fetched = stats.Fetched
	run.Added = stats.Added
	run.Updated = stats.Updated
	run.Retained = stats.Retained
	run.Anomalies = stats.Anomalies
	run.Status = models.RunOK
	if runErr != nil {
		run.Status = models.RunFailed
		run.Error = runErr.Error()
	}

	_, err := s.Update(ctx, run.TableName(), map[string]any{
		"finished_at":      run.FinishedAt,
		"duration_seconds": run.DurationSeconds,
		"status":           run.Status,
		"fetched":          run.Fetched,
		"added":            run.Added,
		"updated":          run.Updated,
		"retained":         run.Retained,
		"anomalies":        run.Anomalies,
		"error":            run.Error,
	}, "id = ?", run.ID)
	return err
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var runs []models.SyncRun
	err := s.SelectJoin(ctx, models.SyncRun{}.TableName(), &runs, Query{Order: "started_at DESC", Limit: limit})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// LastSuccess returns when an entity last synced successfully
func (s *Store) LastSuccess(ctx context.Context, entity string) (*models.SyncRun, error) {
	var runs []models.SyncRun
	err := s.SelectJoin(ctx, models.SyncRun{}.TableName(), &runs, Query{
		Where: "entity = ? AND status = ?",
		Args:  []any{entity, models.RunOK},
		Order: "started_at DESC",
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}
