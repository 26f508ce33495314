package importer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/hosting"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/reconcile"
)

// EntityReport is the outcome of syncing one entity table
type EntityReport struct {
	Entity     string
	Fetched    int
	Added      int
	Updated    int
	Unchanged  int
	Retained   int
	Total      int
	Anomalies  []Anomaly
	Collisions []string
	Err        error
	Duration   time.Duration
}

// Report collects the entity reports of one sync
type Report struct {
	Entities []EntityReport
}

// Err joins the failures of every entity, nil when all succeeded
func (r Report) Err() error {
	var errs []error
	for _, e := range r.Entities {
		if e.Err != nil {
			errs = append(errs, e.Err)
		}
	}
	return errors.Join(errs...)
}

// Entity returns the report of one entity
func (r Report) Entity(name string) (EntityReport, bool) {
	for _, e := range r.Entities {
		if e.Entity == name {
			return e, true
		}
	}
	return EntityReport{}, false
}

// syncEntity runs the pipeline for one table: import, reconcile against the
// persisted rows, replace. On any failure the table is left as it was.
func syncEntity[T any, K cmp.Ordered](
	ctx context.Context,
	s *Session,
	entity string,
	repo db.Repository[T],
	schema reconcile.Schema[T, K],
	load func(context.Context) (Result[T], error),
) ([]T, EntityReport) {
	report := EntityReport{Entity: entity}
	start := time.Now()

	release, err := s.acquire(entity)
	if err != nil {
		report.Err = &ImportError{Entity: entity, Err: err}
		return nil, report
	}
	defer release()

	run, err := s.store.StartRun(ctx, entity)
	if err != nil {
		s.log.Warn("failed to record sync run", "entity", entity, "error", err)
	}

	rows, err := func() ([]T, error) {
		res, err := load(ctx)
		if err != nil {
			return nil, err
		}
		report.Fetched = res.Fetched
		report.Anomalies = res.Anomalies
		report.Collisions = res.Collisions

		existing, err := repo.Load(ctx)
		if err != nil {
			return nil, err
		}

		out := reconcile.Merge(existing, res.Rows, schema)
		report.Added = out.Added
		report.Updated = out.Updated
		report.Unchanged = out.Unchanged
		report.Retained = out.Retained
		report.Total = len(out.Rows)

		// an empty fetch leaves the table as it is
		if len(res.Rows) > 0 {
			if err := repo.Replace(ctx, out.Rows); err != nil {
				return nil, err
			}
		}
		return out.Rows, nil
	}()
	if err != nil {
		report.Err = &ImportError{Entity: entity, Err: err}
	}

	if run != nil {
		stats := db.RunStats{
			Fetched:   report.Fetched,
			Added:     report.Added,
			Updated:   report.Updated,
			Retained:  report.Retained,
			Anomalies: len(report.Anomalies),
		}
		// the run is recorded even when ctx was cancelled
		if err := s.store.FinishRun(context.WithoutCancel(ctx), run, stats, report.Err); err != nil {
			s.log.Warn("failed to finish sync run", "entity", entity, "error", err)
		}
	}

	report.Duration = time.Since(start)
	s.log.Info("entity synced",
		"entity", entity,
		"fetched", report.Fetched,
		"added", report.Added,
		"updated", report.Updated,
		"retained", report.Retained,
		"anomalies", len(report.Anomalies),
		"error", report.Err)
	return rows, report
}

// SyncSprints imports and persists sprints
func (s *Session) SyncSprints(ctx context.Context) EntityReport {
	_, report := syncEntity[models.Sprint, string](ctx, s, EntitySprints, s.store.Sprints(), SprintSchema, s.ImportSprints)
	return report
}

// SyncMembers imports and persists members
func (s *Session) SyncMembers(ctx context.Context) EntityReport {
	_, report := syncEntity[models.Member, string](ctx, s, EntityMembers, s.store.Members(), MemberSchema, s.ImportMembers)
	return report
}

// SyncUserStories imports and persists user stories
func (s *Session) SyncUserStories(ctx context.Context) EntityReport {
	_, report := syncEntity[models.UserStory, int](ctx, s, EntityUserStories, s.store.UserStories(), UserStorySchema, s.ImportUserStories)
	return report
}

// SyncTasks imports and persists tasks, resolving ids against the persisted
// members and user stories
func (s *Session) SyncTasks(ctx context.Context) EntityReport {
	stories, err := s.store.UserStories().Load(ctx)
	if err != nil {
		return EntityReport{Entity: EntityTasks, Err: &ImportError{Entity: EntityTasks, Err: err}}
	}
	members, err := s.store.Members().Load(ctx)
	if err != nil {
		return EntityReport{Entity: EntityTasks, Err: &ImportError{Entity: EntityTasks, Err: err}}
	}
	return s.syncTasks(ctx, StoryRefs(stories), MemberNames(members))
}

func (s *Session) syncTasks(ctx context.Context, storyRefs map[int]int, memberNames map[int]string) EntityReport {
	_, report := syncEntity[models.Task, int](ctx, s, EntityTasks, s.store.Tasks(), TaskSchema, func(ctx context.Context) (Result[models.Task], error) {
		return s.ImportTasks(ctx, storyRefs, memberNames)
	})
	return report
}

// SyncTracker syncs sprints, members, user stories and tasks in that order.
// A failure does not stop later entities, except that tasks are skipped
// when members or user stories failed.
func (s *Session) SyncTracker(ctx context.Context) Report {
	var report Report

	report.Entities = append(report.Entities, s.SyncSprints(ctx))

	members, membersReport := syncEntity[models.Member, string](ctx, s, EntityMembers, s.store.Members(), MemberSchema, s.ImportMembers)
	report.Entities = append(report.Entities, membersReport)

	stories, storiesReport := syncEntity[models.UserStory, int](ctx, s, EntityUserStories, s.store.UserStories(), UserStorySchema, s.ImportUserStories)
	report.Entities = append(report.Entities, storiesReport)

	if membersReport.Err != nil || storiesReport.Err != nil {
		report.Entities = append(report.Entities, EntityReport{
			Entity: EntityTasks,
			Err:    &ImportError{Entity: EntityTasks, Err: ErrDependencyFailed},
		})
		return report
	}

	report.Entities = append(report.Entities, s.syncTasks(ctx, StoryRefs(stories), MemberNames(members)))
	return report
}

// SyncCommits imports commits from every host provider concurrently.
// Each provider writes its own table. Unless full is set, each branch is
// asked only for commits newer than the newest one imported from it.
func (s *Session) SyncCommits(ctx context.Context, full bool) Report {
	if len(s.hosts) == 0 {
		return Report{Entities: []EntityReport{{
			Entity: EntityCommits,
			Err:    &ImportError{Entity: EntityCommits, Err: fmt.Errorf("host: %w", ErrNoSource)},
		}}}
	}

	reports := make([]EntityReport, len(s.hosts))
	var g errgroup.Group
	for i, p := range s.hosts {
		g.Go(func() error {
			reports[i] = s.syncProvider(ctx, p, full)
			return reports[i].Err
		})
	}
	// failures are carried by the reports
	_ = g.Wait()

	return Report{Entities: reports}
}

func (s *Session) syncProvider(ctx context.Context, p hosting.Provider, full bool) EntityReport {
	entity := commitEntity(p.Site())

	// cursors are ignored once the commit table was cleared
	var cursors map[string]time.Time
	if !full {
		_, ok, err := s.store.LatestCommitTime(ctx, p.Site())
		if err == nil && ok {
			cursors, err = s.store.BranchCursors(ctx, p.Site())
		}
		if err != nil {
			return EntityReport{Entity: entity, Err: &ImportError{Entity: entity, Err: err}}
		}
	}

	var next map[string]time.Time
	_, report := syncEntity[models.Commit, string](ctx, s, entity, s.store.Commits(p.Site()), CommitSchema, func(ctx context.Context) (Result[models.Commit], error) {
		res, advanced, err := s.ImportCommits(ctx, p, cursors)
		next = advanced
		return res, err
	})
	if report.Err != nil {
		return report
	}

	// the previous cursors stay, they only widen the next fetch
	if err := s.store.SaveBranchCursors(ctx, p.Site(), next); err != nil {
		s.log.Warn("failed to save branch cursors", "site", p.Site(), "error", err)
	}
	return report
}
