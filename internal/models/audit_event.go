package models

import "time"

// Audit event categories.
const (
	AuditCategoryAction = "ACTION"
	AuditCategoryAdmin  = "ADMIN"
	AuditCategoryDetect = "DETECT"
)

// Audit event outcomes.
const (
	AuditOutcomeSuccess = "SUCCESS"
	AuditOutcomeFailed  = "FAILED"
)

// Audit channels.
const (
	AuditChannelAPI       = "API"
	AuditChannelScheduler = "SCHEDULER"
)

// AuditEvent is one row of the append-only audit trail. Rows are never
// updated or deleted after insert; Diff is computed from Before/After at
// write time.
type AuditEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenantID     uint      `gorm:"not null;index:idx_audit_tenant_created" json:"tenant_id"`
	Category     string    `gorm:"not null" json:"category"`
	EventType    string    `gorm:"not null" json:"event_type"`
	ResourceType string    `gorm:"not null" json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	ActorType    ActorType `gorm:"not null" json:"actor_type"`
	ActorID      uint      `json:"actor_id"`
	Channel      string    `gorm:"not null" json:"channel"`
	Outcome      string    `gorm:"not null" json:"outcome"`
	Severity     string    `gorm:"not null;default:INFO" json:"severity"`
	Before       Document  `gorm:"type:jsonb" json:"before,omitempty"`
	After        Document  `gorm:"type:jsonb" json:"after,omitempty"`
	Diff         Document  `gorm:"type:jsonb" json:"diff,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	CreatedAt    time.Time `gorm:"index:idx_audit_tenant_created" json:"created_at"`
}
