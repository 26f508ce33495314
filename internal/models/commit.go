package models

import (
	"time"

	"github.com/balkashynov/taigit/internal/parser"
)

// Host sites commits can come from
const (
	SiteGitHub = "github"
	SiteGitLab = "gitlab"
	SiteTaiga  = "taiga"
)

// Commit represents one commit seen on any branch of a repository.
// Each host site is persisted in its own table, see CommitTable.
type Commit struct {
	ID        string    `gorm:"primaryKey" json:"id"` // sha
	Repo      string    `gorm:"not null" json:"repo"`
	Site      string    `gorm:"not null" json:"site"`
	TaskNum   *int      `gorm:"index" json:"task_num"`
	Committer string    `gorm:"not null;default:'Unknown'" json:"committer"`
	Date      string    `json:"date"` // MM/DD/YYYY in the reporting time zone
	UTCTime   time.Time `gorm:"not null;index" json:"utc_time"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
}

// CommitTable returns the table holding commits for a host site
func CommitTable(site string) string {
	return site + "_commits"
}

// Normalize canonicalizes placeholder values
func (c *Commit) Normalize() {
	if parser.IsPlaceholder(c.Committer) {
		c.Committer = parser.UnknownContributor
	}
	c.UTCTime = c.UTCTime.UTC()
}

// BranchCursor is the newest commit time imported from one branch.
// Incremental syncs ask each branch only for commits after its own cursor.
type BranchCursor struct {
	Site   string    `gorm:"primaryKey" json:"site"`
	Branch string    `gorm:"primaryKey" json:"branch"`
	Latest time.Time `gorm:"not null" json:"latest"`
}

// TableName specifies the table name for GORM
func (BranchCursor) TableName() string { return "branch_cursors" }
