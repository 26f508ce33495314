package db

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/taigit/internal/models"
)

// BranchCursors returns the newest imported commit time per branch of a site
func (s *Store) BranchCursors(ctx context.Context, site string) (map[string]time.Time, error) {
	var rows []models.BranchCursor
	if err := s.Select(ctx, models.BranchCursor{}.TableName(), &rows, "site = ?", site); err != nil {
		return nil, err
	}

	cursors := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		cursors[r.Branch] = r.Latest.UTC()
	}
	return cursors, nil
}

// SaveBranchCursors replaces the cursors of a site. Branches missing from
// cursors lose theirs, so a branch that comes back is read in full.
func (s *Store) SaveBranchCursors(ctx context.Context, site string, cursors map[string]time.Time) error {
	table := models.BranchCursor{}.TableName()
	defer s.lockTable(table)()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("site = ?", site).Delete(&models.BranchCursor{}).Error; err != nil {
			return err
		}
		if len(cursors) == 0 {
			return nil
		}

		rows := make([]models.BranchCursor, 0, len(cursors))
		for branch, latest := range cursors {
			rows = append(rows, models.BranchCursor{Site: site, Branch: branch, Latest: latest.UTC()})
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
	if err != nil {
		return &PersistenceError{Op: "save", Table: table, Err: err}
	}
	return nil
}
