package models

import "time"

// ActionStatus represents the workflow state of an action.
type ActionStatus string

const (
	ActionStatusProposed        ActionStatus = "PROPOSED"
	ActionStatusPendingApproval ActionStatus = "PENDING_APPROVAL"
	ActionStatusApproved        ActionStatus = "APPROVED"
	ActionStatusExecuting       ActionStatus = "EXECUTING"
	ActionStatusExecuted        ActionStatus = "EXECUTED"
	ActionStatusFailed          ActionStatus = "FAILED"
	ActionStatusCanceled        ActionStatus = "CANCELED"
)

// Terminal reports whether the status permits no further transitions.
func (s ActionStatus) Terminal() bool {
	switch s {
	case ActionStatusExecuted, ActionStatusFailed, ActionStatusCanceled:
		return true
	}
	return false
}

// OpenActionStatuses are the statuses in which a proposal is still in flight.
// Used to reject duplicate proposals for the same case and action type.
var OpenActionStatuses = []ActionStatus{
	ActionStatusProposed,
	ActionStatusPendingApproval,
	ActionStatusApproved,
	ActionStatusExecuting,
}

// ActorType identifies who initiated an operation.
type ActorType string

const (
	ActorTypeHuman  ActorType = "human"
	ActorTypeAgent  ActorType = "agent"
	ActorTypeSystem ActorType = "system"
)

// Actor is a (type, id) pair identifying a requester or approver.
type Actor struct {
	Type ActorType `json:"type"`
	ID   uint      `json:"id"`
}

// SystemActor is the default actor when no identity is supplied.
var SystemActor = Actor{Type: ActorTypeSystem, ID: 0}

// Equal reports whether two actors are the same identity.
func (a Actor) Equal(other Actor) bool {
	return a.Type == other.Type && a.ID == other.ID
}

// Action is a proposed state-changing operation against a financial case,
// governed by guardrails, thresholds and SoD rules. Once the status is
// terminal the row is immutable.
type Action struct {
	Base
	TenantID   uint         `gorm:"not null;index:idx_actions_tenant_case" json:"tenant_id"`
	CaseID     uint         `gorm:"not null;index:idx_actions_tenant_case" json:"case_id"`
	ActionType string       `gorm:"not null" json:"action_type"`
	Status     ActionStatus `gorm:"not null;index" json:"status"`
	Payload    Document     `gorm:"type:jsonb" json:"payload"`

	// Policy decision captured at propose time.
	RequiresApproval bool       `gorm:"not null" json:"requires_approval"`
	RequiresEvidence bool       `gorm:"not null" json:"requires_evidence"`
	Reasons          StringList `gorm:"type:jsonb" json:"reasons,omitempty"`

	// Simulation snapshots and key-level diff.
	SimulationBefore Document `gorm:"type:jsonb" json:"simulation_before,omitempty"`
	SimulationAfter  Document `gorm:"type:jsonb" json:"simulation_after,omitempty"`
	Diff             Document `gorm:"type:jsonb" json:"diff,omitempty"`

	RequestedByActorType ActorType `gorm:"not null" json:"requested_by_actor_type"`
	RequestedByActorID   uint      `gorm:"not null" json:"requested_by_actor_id"`

	PlannedAt     time.Time  `gorm:"not null" json:"planned_at"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	ExecutedBy    string     `json:"executed_by,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

// Requester returns the actor that proposed the action.
func (a *Action) Requester() Actor {
	return Actor{Type: a.RequestedByActorType, ID: a.RequestedByActorID}
}

// Approval records one approval decision for an action. Distinct approvers
// are counted against DUAL_CONTROL requirements.
type Approval struct {
	Base
	TenantID          uint      `gorm:"not null;index" json:"tenant_id"`
	ActionID          uint      `gorm:"not null;index" json:"action_id"`
	ApproverActorType ActorType `gorm:"not null" json:"approver_actor_type"`
	ApproverActorID   uint      `gorm:"not null" json:"approver_actor_id"`
	DecidedAt         time.Time `gorm:"not null" json:"decided_at"`
}
