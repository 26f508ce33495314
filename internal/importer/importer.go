package importer

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/balkashynov/taigit/internal/hosting"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/reconcile"
	"github.com/balkashynov/taigit/internal/taiga"
)

// Entity names used for runs, reports and the in-flight guard
const (
	EntitySprints     = taiga.EntitySprints
	EntityMembers     = taiga.EntityMembers
	EntityUserStories = taiga.EntityUserStories
	EntityTasks       = taiga.EntityTasks
	EntityCommits     = "commits"
)

// Result is one freshly imported table: normalized, deduplicated, sorted
type Result[T any] struct {
	Rows       []T
	Fetched    int // raw records received
	Anomalies  []Anomaly
	Collisions []string // keys that appeared more than once
}

func assemble[T any, K cmp.Ordered](rows []T, fetched int, anomalies []Anomaly, schema reconcile.Schema[T, K]) Result[T] {
	if schema.Normalize != nil {
		for i := range rows {
			schema.Normalize(&rows[i])
		}
	}
	rows, collisions := reconcile.Dedup(rows, schema)
	reconcile.Sort(rows, schema)

	res := Result[T]{Rows: rows, Fetched: fetched, Anomalies: anomalies}
	for _, c := range collisions {
		res.Collisions = append(res.Collisions, fmt.Sprintf("%v (x%d)", c.Key, c.Occurrences))
	}
	return res
}

func extractAll[T any, K cmp.Ordered](entity string, records []taiga.Record, schema reconcile.Schema[T, K], extract func(taiga.Record, *collector) (T, bool)) Result[T] {
	c := &collector{entity: entity}
	rows := make([]T, 0, len(records))
	for _, rec := range records {
		if row, ok := extract(rec, c); ok {
			rows = append(rows, row)
		}
	}
	return assemble(rows, len(records), c.anomalies, schema)
}

func (s *Session) trackerSource() (taiga.Source, error) {
	if s.tracker == nil {
		return nil, fmt.Errorf("tracker: %w", ErrNoSource)
	}
	return s.tracker, nil
}

// ImportSprints fetches and extracts the sprint table
func (s *Session) ImportSprints(ctx context.Context) (Result[models.Sprint], error) {
	src, err := s.trackerSource()
	if err != nil {
		return Result[models.Sprint]{}, err
	}
	records, err := src.Sprints(ctx)
	if err != nil {
		return Result[models.Sprint]{}, err
	}
	return extractAll(EntitySprints, records, SprintSchema, extractSprint), nil
}

// ImportMembers fetches and extracts the member table
func (s *Session) ImportMembers(ctx context.Context) (Result[models.Member], error) {
	src, err := s.trackerSource()
	if err != nil {
		return Result[models.Member]{}, err
	}
	records, err := src.Members(ctx)
	if err != nil {
		return Result[models.Member]{}, err
	}
	labels := memberLabels(records)
	return extractAll(EntityMembers, records, MemberSchema, func(rec taiga.Record, c *collector) (models.Member, bool) {
		return extractMember(rec, labels, c)
	}), nil
}

// ImportUserStories fetches and extracts the user story table
func (s *Session) ImportUserStories(ctx context.Context) (Result[models.UserStory], error) {
	src, err := s.trackerSource()
	if err != nil {
		return Result[models.UserStory]{}, err
	}
	records, err := src.UserStories(ctx)
	if err != nil {
		return Result[models.UserStory]{}, err
	}
	return extractAll(EntityUserStories, records, UserStorySchema, extractUserStory), nil
}

// ImportTasks fetches and extracts the task table. storyRefs maps user story
// ids to refs and memberNames maps user ids to member labels.
func (s *Session) ImportTasks(ctx context.Context, storyRefs map[int]int, memberNames map[int]string) (Result[models.Task], error) {
	src, err := s.trackerSource()
	if err != nil {
		return Result[models.Task]{}, err
	}
	records, err := src.Tasks(ctx)
	if err != nil {
		return Result[models.Task]{}, err
	}
	return extractAll(EntityTasks, records, TaskSchema, func(rec taiga.Record, c *collector) (models.Task, bool) {
		return extractTask(rec, storyRefs, memberNames, c)
	}), nil
}

// ImportCommits reads every branch of a repository. Commits on several
// branches keep the occurrence from the branch listed last.
//
// cursors holds the newest commit already imported per branch; a branch
// without a cursor is read in full. The returned cursors are advanced to the
// newest commit seen on each branch the provider still lists.
func (s *Session) ImportCommits(ctx context.Context, p hosting.Provider, cursors map[string]time.Time) (Result[models.Commit], map[string]time.Time, error) {
	known, err := p.Contributors(ctx)
	if err != nil {
		return Result[models.Commit]{}, nil, err
	}
	branches, err := p.Branches(ctx)
	if err != nil {
		return Result[models.Commit]{}, nil, err
	}

	c := &collector{entity: commitEntity(p.Site())}
	var rows []models.Commit
	next := make(map[string]time.Time, len(branches))
	fetched := 0
	for _, branch := range branches {
		since := cursors[branch]
		raws, err := p.Commits(ctx, branch, since)
		if err != nil {
			return Result[models.Commit]{}, nil, fmt.Errorf("branch %s: %w", branch, err)
		}
		fetched += len(raws)

		latest := since
		for _, raw := range raws {
			row, ok := extractCommit(raw, p, known, c)
			if !ok {
				continue
			}
			rows = append(rows, row)
			if row.UTCTime.After(latest) {
				latest = row.UTCTime
			}
		}
		if !latest.IsZero() {
			next[branch] = latest.UTC()
		}
		s.log.Debug("fetched branch", "site", p.Site(), "branch", branch, "since", since, "commits", len(raws))
	}

	return assemble(rows, fetched, c.anomalies, CommitSchema), next, nil
}

func commitEntity(site string) string {
	return EntityCommits + ":" + site
}
