package models

import (
	"time"
)

// Sync run outcomes
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

// SyncRun records one import of one entity table
type SyncRun struct {
	ID         string     `gorm:"primaryKey" json:"id"` // uuid
	Entity     string     `gorm:"not null;index" json:"entity"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `gorm:"not null;default:'running'" json:"status"`

	DurationSeconds int    `json:"duration_seconds"` // calculated field
	Fetched         int    `json:"fetched"`
	Added           int    `json:"added"`
	Updated         int    `json:"updated"`
	Retained        int    `json:"retained"`
	Anomalies       int    `json:"anomalies"`
	Error           string `json:"error"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string { return "sync_runs" }
