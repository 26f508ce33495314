package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository loads and stores one entity table as a whole
type Repository[T any] interface {
	Name() string
	Load(ctx context.Context) ([]T, error)
	Replace(ctx context.Context, rows []T) error
	Clear(ctx context.Context) error
}

// Table is the Repository for rows of type T stored in one SQL table
type Table[T any] struct {
	store *Store
	name  string
	order string
}

var _ Repository[struct{}] = (*Table[struct{}])(nil)

func newTable[T any](s *Store, name, order string) *Table[T] {
	return &Table[T]{store: s, name: name, order: order}
}

// Name returns the SQL table name
func (t *Table[T]) Name() string {
	return t.name
}

// Load returns every row in canonical order
func (t *Table[T]) Load(ctx context.Context) ([]T, error) {
	var rows []T
	if err := t.store.SelectJoin(ctx, t.name, &rows, Query{Order: t.order}); err != nil {
		return nil, err
	}
	return rows, nil
}

// Replace swaps the whole table content in a single transaction.
// On failure the previous content is left as it was.
func (t *Table[T]) Replace(ctx context.Context, rows []T) error {
	if err := t.store.checkTable(t.name); err != nil {
		return err
	}
	defer t.store.lockTable(t.name)()

	err := t.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", t.name)).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Table(t.name).CreateInBatches(&rows, 200).Error
	})
	if err != nil {
		return &PersistenceError{Op: "replace", Table: t.name, Err: err}
	}

	t.store.log.Debug("table replaced", "table", t.name, "rows", len(rows))
	return nil
}

// Clear deletes every row
func (t *Table[T]) Clear(ctx context.Context) error {
	if err := t.store.checkTable(t.name); err != nil {
		return err
	}
	defer t.store.lockTable(t.name)()

	if err := t.store.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s", t.name)).Error; err != nil {
		return &PersistenceError{Op: "clear", Table: t.name, Err: err}
	}
	return nil
}

// Count returns the number of rows
func (t *Table[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := t.store.db.WithContext(ctx).Table(t.name).Count(&n).Error; err != nil {
		return 0, &PersistenceError{Op: "count", Table: t.name, Err: err}
	}
	return n, nil
}
