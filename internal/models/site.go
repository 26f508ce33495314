package models

import "time"

// Site holds saved credentials for one remote service.
// Username and Token are stored obfuscated, never in clear text.
type Site struct {
	Site      string    `gorm:"primaryKey" json:"site"` // taiga, github, gitlab
	Username  string    `json:"-"`
	Token     string    `json:"-"`
	Target    string    `json:"target"` // owner/repo for GitHub, project id for GitLab
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Site) TableName() string { return "sites" }

// TaigaProject tracks Taiga projects seen by taigit.
// At most one project is linked at a time.
type TaigaProject struct {
	ID       int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Slug     string    `gorm:"uniqueIndex;not null" json:"slug"`
	Name     string    `json:"name"`
	Linked   bool      `gorm:"not null;index" json:"linked"`
	LinkedAt time.Time `json:"linked_at"`
}

// TableName specifies the table name for GORM
func (TaigaProject) TableName() string { return "taiga_projects" }
