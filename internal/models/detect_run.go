package models

import "time"

// DetectRunStatus is the lifecycle status of one detection batch run.
type DetectRunStatus string

const (
	DetectRunStatusStarted   DetectRunStatus = "STARTED"
	DetectRunStatusCompleted DetectRunStatus = "COMPLETED"
	DetectRunStatusFailed    DetectRunStatus = "FAILED"
	DetectRunStatusSkipped   DetectRunStatus = "SKIPPED"
)

// DetectRun is one execution of the detection batch over a bounded time
// window. At most one row per tenant is STARTED at any instant; the
// per-tenant distributed lock enforces this, not a uniqueness constraint.
type DetectRun struct {
	Base
	TenantID     uint            `gorm:"not null;index:idx_detect_runs_tenant_started" json:"tenant_id"`
	WindowFrom   time.Time       `gorm:"not null" json:"window_from"`
	WindowTo     time.Time       `gorm:"not null" json:"window_to"`
	Status       DetectRunStatus `gorm:"not null;index" json:"status"`
	Counts       Document        `gorm:"type:jsonb" json:"counts,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StartedAt    time.Time       `gorm:"not null;index:idx_detect_runs_tenant_started" json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
