package models

import (
	"github.com/balkashynov/taigit/internal/parser"
)

// Sprint represents a Taiga milestone.
// Start and End are MM/DD/YYYY strings in the reporting time zone.
type Sprint struct {
	Name   string `gorm:"primaryKey" json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Closed bool   `gorm:"not null" json:"closed"`
}

// TableName specifies the table name for GORM
func (Sprint) TableName() string { return "sprints" }

// Normalize canonicalizes placeholder dates to empty strings
func (s *Sprint) Normalize() {
	if parser.IsPlaceholder(s.Start) {
		s.Start = ""
	}
	if parser.IsPlaceholder(s.End) {
		s.End = ""
	}
}

// Member represents a project member as shown in reports
type Member struct {
	Username string `gorm:"primaryKey" json:"username"`
	TaigaID  *int   `gorm:"uniqueIndex" json:"taiga_id"`
}

// TableName specifies the table name for GORM
func (Member) TableName() string { return "members" }
