package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/logger"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
)

// thresholdDimensions maps each threshold dimension to the payload field
// carrying its key, in evaluation order.
var thresholdDimensions = []struct {
	dimension  models.ThresholdDimension
	payloadKey string
}{
	{models.DimensionAccount, "accountId"},
	{models.DimensionCostCenter, "costCenter"},
	{models.DimensionCategory, "category"},
}

// actionService drives the governed action workflow.
type actionService struct {
	db         *gorm.DB
	guardrails GuardrailServicer
	thresholds ThresholdServicer
	sod        SoDServicer
	audit      AuditServicer
	executor   Executor
	evidence   EvidenceChecker
}

// NewActionService creates a new ActionServicer.
func NewActionService(
	db *gorm.DB,
	guardrails GuardrailServicer,
	thresholds ThresholdServicer,
	sod SoDServicer,
	audit AuditServicer,
	executor Executor,
	evidence EvidenceChecker,
) ActionServicer {
	return &actionService{
		db:         db,
		guardrails: guardrails,
		thresholds: thresholds,
		sod:        sod,
		audit:      audit,
		executor:   executor,
		evidence:   evidence,
	}
}

// policyDecision is the aggregate outcome of guardrail, threshold and SoD
// evaluation at propose time.
type policyDecision struct {
	blocked          bool
	blockedReasons   []string
	requiresApproval bool
	requiresEvidence bool
	reasons          []string
}

// Simulate previews an action without persisting anything and without
// consulting policy. Payload shape problems are reported as validation
// errors instead of failing the call.
func (s *actionService) Simulate(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*SimulationResult, error) {
	if err := validateActionInput(actionType, payload); err != nil {
		return nil, err
	}

	before, after, err := s.preview(tenantID, caseID, actionType, payload)
	if err != nil {
		return nil, err
	}

	return &SimulationResult{
		Before:           before,
		After:            after,
		Diff:             ComputeDiff(before, after),
		ValidationErrors: validatePayloadShape(payload),
	}, nil
}

// Propose runs the full policy evaluation and persists the action. Blocked
// actions are never persisted. The created action lands in
// PENDING_APPROVAL or, when no policy requires a human, directly in
// APPROVED.
func (s *actionService) Propose(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*ProposalResult, error) {
	if err := validateActionInput(actionType, payload); err != nil {
		return nil, err
	}

	open, err := s.findOpenProposal(tenantID, caseID, actionType)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateProposal,
			fmt.Sprintf("action %d is still open for this case and action type", open.ID))
	}

	decision, err := s.evaluatePolicy(tenantID, payload)
	if err != nil {
		return nil, err
	}
	if decision.blocked {
		s.audit.Record(tenantID, AuditEntry{
			Category:     models.AuditCategoryAction,
			EventType:    "ACTION_PROPOSED",
			ResourceType: "case",
			ResourceID:   strconv.FormatUint(uint64(caseID), 10),
			Actor:        actor,
			Channel:      models.AuditChannelAPI,
			Outcome:      models.AuditOutcomeFailed,
			After:        models.Document{"action_type": actionType, "reasons": decision.blockedReasons},
		})
		return nil, apperrors.WithMessage(apperrors.ErrPolicyViolation, strings.Join(decision.blockedReasons, "; "))
	}

	before, after, err := s.preview(tenantID, caseID, actionType, payload)
	if err != nil {
		return nil, err
	}

	status := models.ActionStatusApproved
	if decision.requiresApproval {
		status = models.ActionStatusPendingApproval
	}

	action := &models.Action{
		TenantID:             tenantID,
		CaseID:               caseID,
		ActionType:           actionType,
		Status:               status,
		Payload:              payload,
		RequiresApproval:     decision.requiresApproval,
		RequiresEvidence:     decision.requiresEvidence,
		Reasons:              decision.reasons,
		SimulationBefore:     before,
		SimulationAfter:      after,
		Diff:                 ComputeDiff(before, after),
		RequestedByActorType: actor.Type,
		RequestedByActorID:   actor.ID,
		PlannedAt:            time.Now().UTC(),
	}

	if err := s.db.Create(action).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.recordActionAudit(action, "ACTION_PROPOSED", actor, models.AuditOutcomeSuccess, nil, statusDoc(action.Status))

	return &ProposalResult{
		Action:           action,
		RequiresApproval: decision.requiresApproval,
		Reasons:          decision.reasons,
	}, nil
}

// Approve records an approval decision. SoD rules are evaluated first and
// blocking violations reject the approval before anything is written, as
// does missing evidence on actions that require it. The action moves to
// APPROVED once every required approver has signed off.
func (s *actionService) Approve(ctx context.Context, tenantID, actionID uint, approver models.Actor) (*models.Action, error) {
	action, err := s.GetAction(tenantID, actionID)
	if err != nil {
		return nil, err
	}
	if action.Status != models.ActionStatusPendingApproval {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot approve an action in status %s", action.Status))
	}

	violations, err := s.sod.EvaluateForApproval(ctx, tenantID, action, approver)
	if err != nil {
		return nil, err
	}
	var blocking []string
	for _, v := range violations {
		if v.Blocking() {
			blocking = append(blocking, fmt.Sprintf("%s: %s", v.RuleKey, v.Detail))
		} else {
			action.Reasons = append(action.Reasons, fmt.Sprintf("%s: %s", v.RuleKey, v.Detail))
		}
	}
	if len(blocking) > 0 {
		s.recordActionAudit(action, "ACTION_APPROVED", approver, models.AuditOutcomeFailed,
			statusDoc(action.Status), models.Document{"violations": blocking})
		return nil, apperrors.WithMessage(apperrors.ErrPolicyViolation, strings.Join(blocking, "; "))
	}

	if err := s.requireEvidence(ctx, action); err != nil {
		return nil, err
	}

	approval := &models.Approval{
		TenantID:          tenantID,
		ActionID:          action.ID,
		ApproverActorType: approver.Type,
		ApproverActorID:   approver.ID,
		DecidedAt:         time.Now().UTC(),
	}
	if err := s.db.Create(approval).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	pending, pendingReason, err := s.sod.PendingDualControl(tenantID, action)
	if err != nil {
		return nil, err
	}

	before := statusDoc(action.Status)
	if pending {
		action.Reasons = append(action.Reasons, fmt.Sprintf("%s: %s", models.SoDRuleDualControl, pendingReason))
	} else {
		action.Status = models.ActionStatusApproved
	}

	if err := s.db.Save(action).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.recordActionAudit(action, "ACTION_APPROVED", approver, models.AuditOutcomeSuccess, before, statusDoc(action.Status))

	return action, nil
}

// Execute runs an approved action through the executor. A failing executor
// is an action outcome, not a transport error: the action lands in FAILED
// and the call still succeeds. Evidence requirements captured at propose
// time are re-checked here, failing closed when the checker itself fails.
func (s *actionService) Execute(ctx context.Context, tenantID, actionID uint, actor models.Actor) (*models.Action, error) {
	action, err := s.GetAction(tenantID, actionID)
	if err != nil {
		return nil, err
	}
	if action.Status != models.ActionStatusApproved {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot execute an action in status %s", action.Status))
	}

	if err := s.requireEvidence(ctx, action); err != nil {
		return nil, err
	}

	// Claim the action with a conditional update so two concurrent calls
	// cannot both reach the executor.
	claim := s.db.Model(&models.Action{}).
		Where("id = ? AND tenant_id = ? AND status = ?", action.ID, tenantID, models.ActionStatusApproved).
		Update("status", models.ActionStatusExecuting)
	if claim.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, claim.Error)
	}
	if claim.RowsAffected == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition, "action is already being executed")
	}
	action.Status = models.ActionStatusExecuting

	result, execErr := s.executor.Execute(ctx, action)

	now := time.Now().UTC()
	action.ExecutedAt = &now
	action.ExecutedBy = actorRef(actor)
	if execErr != nil {
		action.Status = models.ActionStatusFailed
		action.FailureReason = execErr.Error()
	} else {
		action.Status = models.ActionStatusExecuted
		if result != nil {
			action.SimulationAfter = result
			action.Diff = ComputeDiff(action.SimulationBefore, result)
		}
	}

	if err := s.db.Save(action).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	outcome := models.AuditOutcomeSuccess
	if execErr != nil {
		outcome = models.AuditOutcomeFailed
	}
	s.recordActionAudit(action, "ACTION_EXECUTED", actor, outcome,
		statusDoc(models.ActionStatusApproved), statusDoc(action.Status))

	return action, nil
}

// Cancel withdraws an action that has not started executing.
func (s *actionService) Cancel(tenantID, actionID uint, actor models.Actor) (*models.Action, error) {
	action, err := s.GetAction(tenantID, actionID)
	if err != nil {
		return nil, err
	}
	switch action.Status {
	case models.ActionStatusProposed, models.ActionStatusPendingApproval, models.ActionStatusApproved:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot cancel an action in status %s", action.Status))
	}

	before := statusDoc(action.Status)
	action.Status = models.ActionStatusCanceled
	if err := s.db.Save(action).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.recordActionAudit(action, "ACTION_CANCELED", actor, models.AuditOutcomeSuccess, before, statusDoc(action.Status))

	return action, nil
}

// GetAction retrieves an action by ID for a tenant.
func (s *actionService) GetAction(tenantID, actionID uint) (*models.Action, error) {
	var action models.Action
	if err := s.db.Where("id = ? AND tenant_id = ?", actionID, tenantID).First(&action).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrActionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &action, nil
}

// ListActions retrieves a paginated list of actions for a tenant, newest
// first.
func (s *actionService) ListActions(tenantID uint, page pagination.PageRequest, filter ActionFilter) (*pagination.PageResponse[models.Action], error) {
	page.Defaults()

	base := s.db.Model(&models.Action{}).Where("tenant_id = ?", tenantID)
	if filter.CaseID != nil {
		base = base.Where("case_id = ?", *filter.CaseID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.ActionType != "" {
		base = base.Where("action_type = ?", filter.ActionType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var actions []models.Action
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&actions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(actions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// evaluatePolicy aggregates guardrails, thresholds and structural SoD
// requirements into one decision.
func (s *actionService) evaluatePolicy(tenantID uint, payload models.Document) (*policyDecision, error) {
	decision := &policyDecision{}

	verdict, err := s.guardrails.Evaluate(tenantID, payload)
	if err != nil {
		return nil, err
	}
	for _, match := range verdict.Matches {
		reason := fmt.Sprintf("guardrail %s (%s)", match.Name, match.Severity)
		if match.ErrorCode != "" {
			reason = fmt.Sprintf("guardrail %s (%s)", match.Name, match.ErrorCode)
		}
		if match.ErrorCode != "" || match.Severity == models.GuardrailSeverityBlock {
			decision.blockedReasons = append(decision.blockedReasons, reason)
		} else {
			decision.requiresApproval = true
			decision.reasons = append(decision.reasons, reason)
		}
	}
	decision.blocked = verdict.Blocked

	amount, hasAmount := payloadAmount(payload)
	currency := payloadCurrency(payload)
	if hasAmount && currency != "" {
		profileID := payloadProfileID(payload)
		for _, dim := range thresholdDimensions {
			key := payloadString(payload, dim.payloadKey)
			if key == "" {
				continue
			}
			breach, err := s.thresholds.Evaluate(tenantID, profileID, dim.dimension, key, currency, amount)
			if err != nil {
				return nil, err
			}
			if breach == nil {
				continue
			}
			decision.reasons = append(decision.reasons,
				fmt.Sprintf("threshold %s/%s breached: %s > %s %s",
					breach.Dimension, breach.DimensionKey, breach.Amount, breach.ThresholdAmount, breach.Currency))
			if breach.Action == models.BreachActionRequireApproval {
				decision.requiresApproval = true
			}
			if breach.RequireEvidence {
				decision.requiresEvidence = true
			}
		}
	}

	if required, ruleKey := s.sod.RequiresMultiPartyApproval(tenantID, payload); required {
		decision.requiresApproval = true
		decision.reasons = append(decision.reasons, fmt.Sprintf("%s requires multiple approvers", ruleKey))
	}

	return decision, nil
}

// preview builds the before/after snapshots of an action. The baseline is
// the payload of the last executed action of the same type for the case,
// or empty when the case has none.
func (s *actionService) preview(tenantID, caseID uint, actionType string, payload models.Document) (models.Document, models.Document, error) {
	before := models.Document{}

	var last models.Action
	err := s.db.Where(
		"tenant_id = ? AND case_id = ? AND action_type = ? AND status = ?",
		tenantID, caseID, actionType, models.ActionStatusExecuted,
	).Order("executed_at DESC").First(&last).Error
	switch {
	case err == nil:
		for k, v := range last.Payload {
			before[k] = v
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	after := models.Document{}
	for k, v := range payload {
		after[k] = v
	}

	return before, after, nil
}

func (s *actionService) findOpenProposal(tenantID, caseID uint, actionType string) (*models.Action, error) {
	var action models.Action
	err := s.db.Where(
		"tenant_id = ? AND case_id = ? AND action_type = ? AND status IN ?",
		tenantID, caseID, actionType, models.OpenActionStatuses,
	).First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &action, nil
}

// requireEvidence rejects actions whose required supporting evidence is
// missing or cannot be verified.
func (s *actionService) requireEvidence(ctx context.Context, action *models.Action) error {
	if !action.RequiresEvidence {
		return nil
	}
	has, err := s.evidence.HasEvidence(ctx, action)
	if err != nil {
		logger.Get().Warnw("evidence check failed",
			"tenant_id", action.TenantID,
			"action_id", action.ID,
			"error", err,
		)
		return apperrors.WithMessage(apperrors.ErrPolicyViolation, "evidence could not be verified")
	}
	if !has {
		return apperrors.WithMessage(apperrors.ErrPolicyViolation, "supporting evidence is required")
	}
	return nil
}

func (s *actionService) recordActionAudit(action *models.Action, eventType string, actor models.Actor, outcome string, before, after models.Document) {
	s.audit.Record(action.TenantID, AuditEntry{
		Category:     models.AuditCategoryAction,
		EventType:    eventType,
		ResourceType: "action",
		ResourceID:   strconv.FormatUint(uint64(action.ID), 10),
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      outcome,
		Before:       before,
		After:        after,
	})
}

func validateActionInput(actionType string, payload models.Document) error {
	if actionType == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "action type is required")
	}
	if payload == nil {
		return apperrors.WithMessage(apperrors.ErrValidation, "payload is required")
	}
	return nil
}

// validatePayloadShape reports non-fatal payload problems, such as an
// amount that cannot be parsed or an amount without a currency.
func validatePayloadShape(payload models.Document) []string {
	var findings []string
	if v, ok := payload["amount"]; ok {
		amount, parsed := toAmount(v)
		switch {
		case !parsed:
			findings = append(findings, "amount is not a number")
		case amount.IsNegative():
			findings = append(findings, "amount must not be negative")
		case payloadCurrency(payload) == "":
			findings = append(findings, "amount given without a currency")
		}
	}
	return findings
}

func statusDoc(status models.ActionStatus) models.Document {
	return models.Document{"status": string(status)}
}

func actorRef(actor models.Actor) string {
	return fmt.Sprintf("%s:%d", actor.Type, actor.ID)
}
