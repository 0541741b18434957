package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"actiongate/internal/models"
	"actiongate/internal/pagination"
)

// AuditEntry describes one audit trail record. Diff is computed at write
// time from Before/After.
type AuditEntry struct {
	Category     string
	EventType    string
	ResourceType string
	ResourceID   string
	Actor        models.Actor
	Channel      string
	Outcome      string
	Severity     string
	Before       models.Document
	After        models.Document
	TraceID      string
	RequestID    string
}

// AuditFilter holds optional filter parameters for listing audit events.
type AuditFilter struct {
	Category     string
	EventType    string
	ResourceType string
	ResourceID   string
	Outcome      string
	From         *time.Time
	To           *time.Time
}

// AuditServicer defines the contract for the append-only audit trail.
// Record is best-effort by contract: it never returns an error and never
// fails the operation it describes.
type AuditServicer interface {
	Record(tenantID uint, entry AuditEntry)
	ListEvents(tenantID uint, page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditEvent], error)
	GetEvent(tenantID, eventID uint) (*models.AuditEvent, error)
}

// GuardrailMatch is one guardrail whose rule tree matched the payload.
// ErrorCode is set when the rule could not be evaluated; such matches are
// always blocking.
type GuardrailMatch struct {
	GuardrailID uint                     `json:"guardrail_id"`
	Name        string                   `json:"name"`
	Severity    models.GuardrailSeverity `json:"severity"`
	ErrorCode   string                   `json:"error_code,omitempty"`
}

// GuardrailVerdict aggregates the matches of one evaluation.
type GuardrailVerdict struct {
	Blocked bool             `json:"blocked"`
	Matches []GuardrailMatch `json:"matches"`
}

// GuardrailServicer defines the contract for guardrail configuration and
// evaluation.
type GuardrailServicer interface {
	CreateGuardrail(tenantID uint, actor models.Actor, name, scope string, rule models.Document, severity models.GuardrailSeverity, enabled bool) (*models.Guardrail, error)
	UpdateGuardrail(tenantID, guardrailID uint, actor models.Actor, name, scope string, rule models.Document, severity *models.GuardrailSeverity, enabled *bool) (*models.Guardrail, error)
	DeleteGuardrail(tenantID, guardrailID uint, actor models.Actor) error
	ListGuardrails(tenantID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Guardrail], error)
	Evaluate(tenantID uint, payload models.Document) (*GuardrailVerdict, error)
}

// ThresholdBreach reports a monetary amount exceeding a configured limit.
type ThresholdBreach struct {
	ThresholdID     uint                      `json:"threshold_id"`
	Dimension       models.ThresholdDimension `json:"dimension"`
	DimensionKey    string                    `json:"dimension_key"`
	Currency        string                    `json:"currency"`
	ThresholdAmount decimal.Decimal           `json:"threshold_amount"`
	Amount          decimal.Decimal           `json:"amount"`
	Severity        models.BreachSeverity     `json:"severity"`
	Action          models.BreachAction       `json:"action"`
	RequireEvidence bool                      `json:"require_evidence"`
}

// ThresholdServicer defines the contract for threshold configuration and
// evaluation. Evaluate returns (nil, nil) when no threshold row matches:
// an unconfigured dimension means no limit, not an error.
type ThresholdServicer interface {
	UpsertThreshold(tenantID uint, actor models.Actor, t *models.Threshold) (*models.Threshold, error)
	DeleteThreshold(tenantID, thresholdID uint, actor models.Actor) error
	ListThresholds(tenantID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Threshold], error)
	Evaluate(tenantID, profileID uint, dimension models.ThresholdDimension, dimensionKey, currency string, amount decimal.Decimal) (*ThresholdBreach, error)
}

// SoDViolation is one violated segregation-of-duties rule.
type SoDViolation struct {
	RuleKey  string             `json:"rule_key"`
	Title    string             `json:"title"`
	Severity models.SoDSeverity `json:"severity"`
	Detail   string             `json:"detail,omitempty"`
}

// Blocking reports whether the violation prevents the transition.
func (v SoDViolation) Blocking() bool { return v.Severity == models.SoDSeverityBlock }

// SoDServicer defines the contract for segregation-of-duties rules.
type SoDServicer interface {
	SeedDefaults(tenantID, profileID uint) error
	ListRules(tenantID uint, page pagination.PageRequest) (*pagination.PageResponse[models.SoDRule], error)
	PatchRule(tenantID uint, ruleKey string, actor models.Actor, enabled *bool, severity *models.SoDSeverity) (*models.SoDRule, error)
	// EvaluateForApproval evaluates every enabled rule against the
	// action/approver pair. Internal evaluation errors fail closed as
	// BLOCK violations.
	EvaluateForApproval(ctx context.Context, tenantID uint, action *models.Action, approver models.Actor) ([]SoDViolation, error)
	// RequiresMultiPartyApproval reports whether an enabled rule
	// structurally requires more than one approver for this payload.
	RequiresMultiPartyApproval(tenantID uint, payload models.Document) (bool, string)
	// PendingDualControl reports whether the action still needs more
	// distinct approvers under DUAL_CONTROL.
	PendingDualControl(tenantID uint, action *models.Action) (bool, string, error)
}

// SimulationResult is the side-effect-free preview of an action.
type SimulationResult struct {
	Before           models.Document `json:"before"`
	After            models.Document `json:"after"`
	Diff             models.Document `json:"diff"`
	ValidationErrors []string        `json:"validation_errors"`
}

// ProposalResult is the outcome of proposing an action.
type ProposalResult struct {
	Action           *models.Action `json:"action"`
	RequiresApproval bool           `json:"requires_approval"`
	Reasons          []string       `json:"reasons"`
}

// ActionFilter holds optional filter parameters for listing actions.
type ActionFilter struct {
	CaseID     *uint
	Status     *models.ActionStatus
	ActionType string
}

// ActionServicer defines the contract for the governed action workflow.
type ActionServicer interface {
	Simulate(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*SimulationResult, error)
	Propose(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*ProposalResult, error)
	Approve(ctx context.Context, tenantID, actionID uint, approver models.Actor) (*models.Action, error)
	Execute(ctx context.Context, tenantID, actionID uint, actor models.Actor) (*models.Action, error)
	Cancel(tenantID, actionID uint, actor models.Actor) (*models.Action, error)
	GetAction(tenantID, actionID uint) (*models.Action, error)
	ListActions(tenantID uint, page pagination.PageRequest, filter ActionFilter) (*pagination.PageResponse[models.Action], error)
}

// DetectCounts summarizes one detection computation.
type DetectCounts struct {
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Suppressed int `json:"suppressed"`
}

// DetectRunResult is the outcome of a detect batch trigger. For SKIPPED
// results Run is nil and the running-run fields identify the holder.
type DetectRunResult struct {
	Status       models.DetectRunStatus `json:"status"`
	Run          *models.DetectRun      `json:"run,omitempty"`
	RunningRunID *uint                  `json:"running_run_id,omitempty"`
	RunningSince *time.Time             `json:"running_since,omitempty"`
	SkipReason   string                 `json:"skip_reason,omitempty"`
}

// SchedulerStatus reports the detect scheduler's configuration and the
// most recent run outcomes for a tenant.
type SchedulerStatus struct {
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"interval_minutes"`
	LastRunID       *uint      `json:"last_run_id,omitempty"`
	LastSuccessAt   *time.Time `json:"last_success_at,omitempty"`
	LastFailAt      *time.Time `json:"last_fail_at,omitempty"`
	Running         bool       `json:"running"`
	RunningRunID    *uint      `json:"running_run_id,omitempty"`
	RunningSince    *time.Time `json:"running_since,omitempty"`
	NextPlannedAt   *time.Time `json:"next_planned_at,omitempty"`
}

// DetectRunFilter holds optional filter parameters for listing detect runs.
type DetectRunFilter struct {
	From   *time.Time
	To     *time.Time
	Status *models.DetectRunStatus
}

// DetectServicer defines the contract for lock-guarded detection batches.
// Run is the single entry point shared by manual triggers and the
// scheduler.
type DetectServicer interface {
	Run(ctx context.Context, tenantID uint, windowFrom, windowTo time.Time, actor models.Actor, channel string) (*DetectRunResult, error)
	ListRuns(tenantID uint, page pagination.PageRequest, filter DetectRunFilter) (*pagination.PageResponse[models.DetectRun], error)
	GetRun(tenantID, runID uint) (*models.DetectRun, error)
	GetSchedulerStatus(tenantID uint) (*SchedulerStatus, error)
}
