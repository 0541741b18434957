package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"actiongate/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestActor returns a human actor with a unique ID.
func TestActor() models.Actor {
	return models.Actor{Type: models.ActorTypeHuman, ID: uint(nextID())}
}

// TestAgentActor returns an agent actor with a unique ID.
func TestAgentActor() models.Actor {
	return models.Actor{Type: models.ActorTypeAgent, ID: uint(nextID())}
}

// CreateTestAction creates an action in the given status with a minimal payload.
func CreateTestAction(t *testing.T, db *gorm.DB, tenantID, caseID uint, status models.ActionStatus) *models.Action {
	t.Helper()
	return CreateTestActionWithPayload(t, db, tenantID, caseID, status, models.Document{
		"amount":   50,
		"currency": "USD",
	})
}

// CreateTestActionWithPayload creates an action with the given payload.
func CreateTestActionWithPayload(t *testing.T, db *gorm.DB, tenantID, caseID uint, status models.ActionStatus, payload models.Document) *models.Action {
	t.Helper()

	requester := TestAgentActor()
	action := &models.Action{
		TenantID:             tenantID,
		CaseID:               caseID,
		ActionType:           fmt.Sprintf("adjust_budget_%d", nextID()),
		Status:               status,
		Payload:              payload,
		RequestedByActorType: requester.Type,
		RequestedByActorID:   requester.ID,
		RequiresApproval:     status == models.ActionStatusPendingApproval,
		PlannedAt:            time.Now().UTC(),
	}
	if err := db.Create(action).Error; err != nil {
		t.Fatalf("failed to create test action: %v", err)
	}
	return action
}

// CreateTestApproval records an approval decision for an action.
func CreateTestApproval(t *testing.T, db *gorm.DB, action *models.Action, approver models.Actor) *models.Approval {
	t.Helper()

	approval := &models.Approval{
		TenantID:          action.TenantID,
		ActionID:          action.ID,
		ApproverActorType: approver.Type,
		ApproverActorID:   approver.ID,
		DecidedAt:         time.Now().UTC(),
	}
	if err := db.Create(approval).Error; err != nil {
		t.Fatalf("failed to create test approval: %v", err)
	}
	return approval
}

// CreateTestGuardrail creates an enabled BLOCK guardrail with the given rule.
func CreateTestGuardrail(t *testing.T, db *gorm.DB, tenantID uint, rule models.Document) *models.Guardrail {
	t.Helper()
	return CreateTestGuardrailWithSeverity(t, db, tenantID, rule, models.GuardrailSeverityBlock)
}

// CreateTestGuardrailWithSeverity creates an enabled guardrail with the given rule and severity.
func CreateTestGuardrailWithSeverity(t *testing.T, db *gorm.DB, tenantID uint, rule models.Document, severity models.GuardrailSeverity) *models.Guardrail {
	t.Helper()

	guardrail := &models.Guardrail{
		TenantID: tenantID,
		Name:     fmt.Sprintf("guardrail-%d", nextID()),
		Scope:    "action",
		Rule:     rule,
		Severity: severity,
		Enabled:  true,
	}
	if err := db.Create(guardrail).Error; err != nil {
		t.Fatalf("failed to create test guardrail: %v", err)
	}
	return guardrail
}

// CreateTestThreshold creates a threshold for the given scope and amount.
func CreateTestThreshold(t *testing.T, db *gorm.DB, tenantID, profileID uint, dimension models.ThresholdDimension, key, currency string, amount int64) *models.Threshold {
	t.Helper()

	threshold := &models.Threshold{
		TenantID:         tenantID,
		ProfileID:        profileID,
		Dimension:        dimension,
		DimensionKey:     key,
		Currency:         currency,
		ThresholdAmount:  decimal.NewFromInt(amount),
		SeverityOnBreach: models.BreachSeverityHigh,
		ActionOnBreach:   models.BreachActionRequireApproval,
	}
	if err := db.Create(threshold).Error; err != nil {
		t.Fatalf("failed to create test threshold: %v", err)
	}
	return threshold
}

// CreateTestSoDRule creates an enabled BLOCK rule with the given key and config.
func CreateTestSoDRule(t *testing.T, db *gorm.DB, tenantID, profileID uint, ruleKey string, config models.Document) *models.SoDRule {
	t.Helper()

	rule := &models.SoDRule{
		TenantID:  tenantID,
		ProfileID: profileID,
		RuleKey:   ruleKey,
		Title:     ruleKey,
		Severity:  models.SoDSeverityBlock,
		Config:    config,
		Enabled:   true,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("failed to create test sod rule: %v", err)
	}
	return rule
}

// CreateTestDetectRun creates a detect run in the given status started now.
func CreateTestDetectRun(t *testing.T, db *gorm.DB, tenantID uint, status models.DetectRunStatus) *models.DetectRun {
	t.Helper()

	now := time.Now().UTC()
	run := &models.DetectRun{
		TenantID:   tenantID,
		WindowFrom: now.Add(-time.Hour),
		WindowTo:   now,
		Status:     status,
		StartedAt:  now,
	}
	if status == models.DetectRunStatusCompleted || status == models.DetectRunStatusFailed {
		completed := now
		run.CompletedAt = &completed
	}
	if err := db.Create(run).Error; err != nil {
		t.Fatalf("failed to create test detect run: %v", err)
	}
	return run
}
