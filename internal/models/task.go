package models

import (
	"github.com/balkashynov/taigit/internal/parser"
)

// UserStory represents a Taiga user story
type UserStory struct {
	ID         int     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UsNum      int     `gorm:"not null;index" json:"us_num"` // Taiga ref number
	IsComplete bool    `gorm:"not null" json:"is_complete"`
	Sprint     *string `gorm:"index" json:"sprint"` // sprint name, nil when in backlog
	Points     float64 `gorm:"not null;default:0" json:"points"`
	Subject    string  `json:"subject"`
}

// TableName specifies the table name for GORM
func (UserStory) TableName() string { return "user_stories" }

// Normalize canonicalizes placeholder values to nil
func (u *UserStory) Normalize() {
	u.Sprint = parser.NullIfPlaceholderPtr(u.Sprint)
}

// Task represents a Taiga task.
// IsCoding is a local annotation and never comes from Taiga.
type Task struct {
	ID         int     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TaskNum    int     `gorm:"not null;index" json:"task_num"` // Taiga ref number
	IsComplete bool    `gorm:"not null" json:"is_complete"`
	UsNum      *int    `gorm:"index" json:"us_num"` // nil for storyless tasks
	Assignee   *string `json:"assignee"`
	Subject    string  `json:"subject"`
	IsCoding   bool    `gorm:"not null" json:"is_coding"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string { return "tasks" }

// Normalize canonicalizes placeholder values to nil
func (t *Task) Normalize() {
	t.Assignee = parser.NullIfPlaceholderPtr(t.Assignee)
}

// Storyless reports whether the task is not attached to a user story
func (t Task) Storyless() bool {
	return t.UsNum == nil
}
