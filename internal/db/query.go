package db

import (
	"context"
	"fmt"
)

// Query describes a parametrized select. Where holds "?" placeholders bound
// to Args; values are never interpolated into the SQL text.
type Query struct {
	Columns string
	Join    string
	Where   string
	Args    []any
	Order   string
	Limit   int
}

// Insert adds one row to table
func (s *Store) Insert(ctx context.Context, table string, row any) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	defer s.lockTable(table)()

	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return &PersistenceError{Op: "insert", Table: table, Err: err}
	}
	return nil
}

// Update sets columns on every row matching where and returns the affected count
func (s *Store) Update(ctx context.Context, table string, values map[string]any, where string, args ...any) (int64, error) {
	if err := s.checkTable(table); err != nil {
		return 0, err
	}
	if where == "" {
		return 0, &PersistenceError{Op: "update", Table: table, Err: fmt.Errorf("refusing to update without a condition")}
	}
	defer s.lockTable(table)()

	res := s.db.WithContext(ctx).Table(table).Where(where, args...).Updates(values)
	if res.Error != nil {
		return 0, &PersistenceError{Op: "update", Table: table, Err: res.Error}
	}
	return res.RowsAffected, nil
}

// Delete removes every row matching where and returns the affected count
func (s *Store) Delete(ctx context.Context, table string, where string, args ...any) (int64, error) {
	if err := s.checkTable(table); err != nil {
		return 0, err
	}
	if where == "" {
		return 0, &PersistenceError{Op: "delete", Table: table, Err: fmt.Errorf("refusing to delete without a condition, use Clear")}
	}
	defer s.lockTable(table)()

	// table is checked against the migrated set above
	res := s.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), args...)
	if res.Error != nil {
		return 0, &PersistenceError{Op: "delete", Table: table, Err: res.Error}
	}
	return res.RowsAffected, nil
}

// Select loads rows matching where into dest (a pointer to a slice)
func (s *Store) Select(ctx context.Context, table string, dest any, where string, args ...any) error {
	return s.SelectJoin(ctx, table, dest, Query{Where: where, Args: args})
}

// SelectJoin runs a select with an optional join, order and limit
func (s *Store) SelectJoin(ctx context.Context, table string, dest any, q Query) error {
	if err := s.checkTable(table); err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Table(table)
	if q.Columns != "" {
		tx = tx.Select(q.Columns)
	}
	if q.Join != "" {
		tx = tx.Joins(q.Join)
	}
	if q.Where != "" {
		tx = tx.Where(q.Where, q.Args...)
	}
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	if err := tx.Find(dest).Error; err != nil {
		return &PersistenceError{Op: "select", Table: table, Err: err}
	}
	return nil
}
