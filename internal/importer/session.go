// Package importer fetches tracker and commit records, reconciles them with
// the local database and persists the result, one entity table at a time.
package importer

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/hosting"
	"github.com/balkashynov/taigit/internal/taiga"
)

// Session holds everything one sync operation needs.
// It is created per command and discarded afterwards.
type Session struct {
	store   *db.Store
	tracker taiga.Source
	hosts   []hosting.Provider
	log     *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// Option configures a Session
type Option func(*Session)

// WithTracker sets the tracker source for sprints, members, stories and tasks
func WithTracker(src taiga.Source) Option {
	return func(s *Session) { s.tracker = src }
}

// WithHosts sets the host providers commits are read from
func WithHosts(providers ...hosting.Provider) Option {
	return func(s *Session) { s.hosts = append(s.hosts, providers...) }
}

// WithLogger sets the session logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession creates a sync session over store
func NewSession(store *db.Store, opts ...Option) *Session {
	s := &Session{
		store:    store,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire marks entity as importing; the returned func releases it
func (s *Session) acquire(entity string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[entity] {
		return nil, fmt.Errorf("%s: %w", entity, ErrImportInFlight)
	}
	s.inflight[entity] = true

	return func() {
		s.mu.Lock()
		delete(s.inflight, entity)
		s.mu.Unlock()
	}, nil
}
