package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/taigit/internal/models"
)

// obfuscate hides credentials from casual reading of the database file.
// It is not encryption.
func obfuscate(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func deobfuscate(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveSite stores credentials for a site, replacing any previous ones
func (s *Store) SaveSite(ctx context.Context, site models.Site) error {
	table := site.TableName()
	defer s.lockTable(table)()

	site.Username = obfuscate(site.Username)
	site.Token = obfuscate(site.Token)
	site.UpdatedAt = time.Now().UTC()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&site).Error
	if err != nil {
		return &PersistenceError{Op: "save", Table: table, Err: err}
	}
	return nil
}

// GetSite returns the saved credentials of a site in clear text
func (s *Store) GetSite(ctx context.Context, name string) (*models.Site, error) {
	var sites []models.Site
	if err := s.Select(ctx, models.Site{}.TableName(), &sites, "site = ?", name); err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("site %s: %w", name, ErrNotFound)
	}

	site := sites[0]
	var err error
	if site.Username, err = deobfuscate(site.Username); err != nil {
		return nil, fmt.Errorf("corrupt credentials for %s: %w", name, err)
	}
	if site.Token, err = deobfuscate(site.Token); err != nil {
		return nil, fmt.Errorf("corrupt credentials for %s: %w", name, err)
	}
	return &site, nil
}

// LinkProject records a Taiga project and makes it the only linked one
func (s *Store) LinkProject(ctx context.Context, project models.TaigaProject) error {
	table := project.TableName()
	defer s.lockTable(table)()

	project.Linked = true
	project.LinkedAt = time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TaigaProject{}).Where("linked = ?", true).Update("linked", false).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&project).Error
	})
	if err != nil {
		return &PersistenceError{Op: "link", Table: table, Err: err}
	}
	return nil
}

// LinkedProject returns the currently linked Taiga project
func (s *Store) LinkedProject(ctx context.Context) (*models.TaigaProject, error) {
	var projects []models.TaigaProject
	if err := s.Select(ctx, models.TaigaProject{}.TableName(), &projects, "linked = ?", true); err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, ErrNoLinkedProject
	}
	return &projects[0], nil
}
