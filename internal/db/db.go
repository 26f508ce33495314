package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/balkashynov/taigit/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrNoLinkedProject = errors.New("no Taiga project linked, run 'taigit link <slug>' first")
	ErrUnknownTable    = errors.New("unknown table")
)

// PersistenceError wraps a failed store operation with its table
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CommitSites are the host sites with a commit table
var CommitSites = []string{models.SiteGitHub, models.SiteGitLab}

// Store is the SQLite-backed persistence layer.
//
// Every write commits immediately. There is no transaction spanning several
// entity tables: after a crash mid-sync some tables may hold the new import
// while others still hold the previous one.
type Store struct {
	db  *gorm.DB
	log *slog.Logger

	mu     sync.Mutex
	writes map[string]*sync.Mutex
	tables map[string]bool
}

// DefaultPath returns the path to the SQLite database file
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".taigit", "taigit.db"), nil
}

// Open sets up the database connection and runs migrations
func Open(dbPath string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	dsn := dbPath
	if !strings.Contains(dbPath, ":memory:") {
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if strings.Contains(dbPath, ":memory:") {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{
		db:     gdb,
		log:    log,
		writes: make(map[string]*sync.Mutex),
		tables: make(map[string]bool),
	}

	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// runMigrations creates/updates the database schema
func (s *Store) runMigrations() error {
	entities := []interface{ TableName() string }{
		&models.Sprint{},
		&models.Member{},
		&models.UserStory{},
		&models.Task{},
		&models.Site{},
		&models.TaigaProject{},
		&models.SyncRun{},
		&models.BranchCursor{},
	}
	for _, e := range entities {
		if err := s.db.AutoMigrate(e); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", e.TableName(), err)
		}
		s.tables[e.TableName()] = true
	}

	// One commit table per host site; index names must be unique per database
	for _, site := range CommitSites {
		table := models.CommitTable(site)
		if err := s.db.Table(table).AutoMigrate(&models.Commit{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", table, err)
		}
		for _, col := range []string{"utc_time", "task_num"} {
			if err := s.db.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", table, col, table, col)).Error; err != nil {
				return fmt.Errorf("failed to index %s.%s: %w", table, col, err)
			}
		}
		s.tables[table] = true
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// lockTable serializes writers of one table; the returned func unlocks it
func (s *Store) lockTable(table string) func() {
	s.mu.Lock()
	m, ok := s.writes[table]
	if !ok {
		m = &sync.Mutex{}
		s.writes[table] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Store) checkTable(table string) error {
	if !s.tables[table] {
		return &PersistenceError{Op: "access", Table: table, Err: ErrUnknownTable}
	}
	return nil
}
