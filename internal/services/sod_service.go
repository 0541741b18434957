package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/logger"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
)

// defaultRequiredApprovals is the DUAL_CONTROL approver count when the
// rule config does not override it.
const defaultRequiredApprovals = 2

// sodService handles segregation-of-duties rules.
type sodService struct {
	db    *gorm.DB
	audit AuditServicer
	roles RoleResolver
}

// NewSoDService creates a new SoDServicer.
func NewSoDService(db *gorm.DB, audit AuditServicer, roles RoleResolver) SoDServicer {
	return &sodService{db: db, audit: audit, roles: roles}
}

// SeedDefaults creates the three well-known rules for a tenant profile.
// Existing rules, including ones an admin has tuned, are left untouched.
func (s *sodService) SeedDefaults(tenantID, profileID uint) error {
	defaults := []models.SoDRule{
		{
			TenantID:    tenantID,
			ProfileID:   profileID,
			RuleKey:     models.SoDRuleNoSelfApprove,
			Title:       "No self-approval",
			Description: "The requester of an action cannot approve it.",
			Enabled:     true,
			Severity:    models.SoDSeverityBlock,
		},
		{
			TenantID:    tenantID,
			ProfileID:   profileID,
			RuleKey:     models.SoDRuleDualControl,
			Title:       "Dual control",
			Description: "High-value actions need two distinct approvers.",
			Enabled:     true,
			Severity:    models.SoDSeverityBlock,
			Config: models.Document{
				"requiredApprovals": defaultRequiredApprovals,
				"minAmount":         100000,
				"currency":          "USD",
			},
		},
		{
			TenantID:    tenantID,
			ProfileID:   profileID,
			RuleKey:     models.SoDRuleFinanceVsSecurity,
			Title:       "Finance vs security",
			Description: "An approver must not hold roles from more than one conflicting role set.",
			Enabled:     true,
			Severity:    models.SoDSeverityWarn,
			Config: models.Document{
				"roleSets": []interface{}{
					[]interface{}{"finance"},
					[]interface{}{"security"},
				},
			},
		},
	}

	for i := range defaults {
		rule := defaults[i]
		err := s.db.Where(
			"tenant_id = ? AND profile_id = ? AND rule_key = ?",
			tenantID, profileID, rule.RuleKey,
		).FirstOrCreate(&rule).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

// ListRules retrieves a paginated list of SoD rules for a tenant.
func (s *sodService) ListRules(tenantID uint, page pagination.PageRequest) (*pagination.PageResponse[models.SoDRule], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.SoDRule{}).Where("tenant_id = ?", tenantID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rules []models.SoDRule
	if err := base.Order("profile_id, rule_key").Scopes(pagination.Paginate(page)).Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rules, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// PatchRule toggles or regrades a rule. Rule keys are fixed: rules cannot
// be created or deleted through this path, only tuned.
func (s *sodService) PatchRule(tenantID uint, ruleKey string, actor models.Actor, enabled *bool, severity *models.SoDSeverity) (*models.SoDRule, error) {
	var rule models.SoDRule
	if err := s.db.Where("tenant_id = ? AND rule_key = ?", tenantID, ruleKey).Order("profile_id").First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSodRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	before := models.Document{"enabled": rule.Enabled, "severity": string(rule.Severity)}
	if enabled != nil {
		rule.Enabled = *enabled
	}
	if severity != nil {
		if *severity != models.SoDSeverityBlock && *severity != models.SoDSeverityWarn {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown severity %q", *severity))
		}
		rule.Severity = *severity
	}

	if err := s.db.Save(&rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryAdmin,
		EventType:    "SOD_RULE_UPDATED",
		ResourceType: "sod_rule",
		ResourceID:   rule.RuleKey,
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      models.AuditOutcomeSuccess,
		Before:       before,
		After:        models.Document{"enabled": rule.Enabled, "severity": string(rule.Severity)},
	})

	return &rule, nil
}

// EvaluateForApproval checks every enabled rule against an approval
// attempt. A rule that cannot be evaluated, such as a failing role
// resolver, fails closed as a BLOCK violation.
func (s *sodService) EvaluateForApproval(ctx context.Context, tenantID uint, action *models.Action, approver models.Actor) ([]SoDViolation, error) {
	rules, err := s.enabledRules(tenantID, payloadProfileID(action.Payload))
	if err != nil {
		return nil, err
	}

	var violations []SoDViolation
	for _, rule := range rules {
		switch rule.RuleKey {
		case models.SoDRuleNoSelfApprove:
			if approver.Equal(action.Requester()) {
				violations = append(violations, SoDViolation{
					RuleKey:  rule.RuleKey,
					Title:    rule.Title,
					Severity: rule.Severity,
					Detail:   "requester cannot approve their own action",
				})
			}

		case models.SoDRuleDualControl:
			if !s.dualControlApplies(rule.Config, action.Payload) {
				continue
			}
			approved, err := s.hasApproved(tenantID, action.ID, approver)
			if err != nil {
				return nil, err
			}
			if approved {
				violations = append(violations, SoDViolation{
					RuleKey:  rule.RuleKey,
					Title:    rule.Title,
					Severity: rule.Severity,
					Detail:   "approver already counted toward dual control",
				})
			}

		case models.SoDRuleFinanceVsSecurity:
			roleSets := parseRoleSets(rule.Config)
			if len(roleSets) < 2 {
				continue
			}
			roles, err := s.roles.Roles(ctx, tenantID, approver)
			if err != nil {
				logger.Get().Warnw("role resolution failed during sod evaluation",
					"tenant_id", tenantID,
					"action_id", action.ID,
					"error", err,
				)
				violations = append(violations, SoDViolation{
					RuleKey:  rule.RuleKey,
					Title:    rule.Title,
					Severity: models.SoDSeverityBlock,
					Detail:   "approver roles could not be resolved",
				})
				continue
			}
			if setsHeld(roles, roleSets) > 1 {
				violations = append(violations, SoDViolation{
					RuleKey:  rule.RuleKey,
					Title:    rule.Title,
					Severity: rule.Severity,
					Detail:   "approver holds roles from conflicting role sets",
				})
			}
		}
	}

	return violations, nil
}

// RequiresMultiPartyApproval reports whether DUAL_CONTROL structurally
// requires more than one approver for this payload.
func (s *sodService) RequiresMultiPartyApproval(tenantID uint, payload models.Document) (bool, string) {
	rule, err := s.dualControlRule(tenantID, payloadProfileID(payload))
	if err != nil || rule == nil {
		return false, ""
	}
	if !s.dualControlApplies(rule.Config, payload) {
		return false, ""
	}
	if requiredApprovals(rule.Config) < 2 {
		return false, ""
	}
	return true, models.SoDRuleDualControl
}

// PendingDualControl reports whether the action still needs more distinct
// approvers under DUAL_CONTROL.
func (s *sodService) PendingDualControl(tenantID uint, action *models.Action) (bool, string, error) {
	rule, err := s.dualControlRule(tenantID, payloadProfileID(action.Payload))
	if err != nil {
		return false, "", err
	}
	if rule == nil || !s.dualControlApplies(rule.Config, action.Payload) {
		return false, "", nil
	}

	required := requiredApprovals(rule.Config)
	var approvals []models.Approval
	err = s.db.Where("tenant_id = ? AND action_id = ?", tenantID, action.ID).Find(&approvals).Error
	if err != nil {
		return false, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	distinct := make(map[models.Actor]struct{}, len(approvals))
	for _, a := range approvals {
		distinct[models.Actor{Type: a.ApproverActorType, ID: a.ApproverActorID}] = struct{}{}
	}

	if len(distinct) < required {
		return true, fmt.Sprintf("%d of %d required approvals recorded", len(distinct), required), nil
	}
	return false, "", nil
}

func (s *sodService) enabledRules(tenantID, profileID uint) ([]models.SoDRule, error) {
	var rules []models.SoDRule
	err := s.db.Where(
		"tenant_id = ? AND profile_id = ? AND enabled = ?",
		tenantID, profileID, true,
	).Order("rule_key").Find(&rules).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

func (s *sodService) dualControlRule(tenantID, profileID uint) (*models.SoDRule, error) {
	var rule models.SoDRule
	err := s.db.Where(
		"tenant_id = ? AND profile_id = ? AND rule_key = ? AND enabled = ?",
		tenantID, profileID, models.SoDRuleDualControl, true,
	).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// dualControlApplies reports whether the payload falls inside the rule's
// monetary scope. A rule without minAmount applies to every action.
func (s *sodService) dualControlApplies(config models.Document, payload models.Document) bool {
	minAmount, ok := toAmount(config["minAmount"])
	if !ok {
		return true
	}
	if c, cok := config["currency"].(string); cok && c != "" {
		if payloadCurrency(payload) != c {
			return false
		}
	}
	amount, ok := payloadAmount(payload)
	if !ok {
		return false
	}
	return amount.GreaterThanOrEqual(minAmount)
}

func (s *sodService) hasApproved(tenantID, actionID uint, approver models.Actor) (bool, error) {
	var count int64
	err := s.db.Model(&models.Approval{}).
		Where("tenant_id = ? AND action_id = ? AND approver_actor_type = ? AND approver_actor_id = ?",
			tenantID, actionID, approver.Type, approver.ID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// requiredApprovals reads the approver count from a DUAL_CONTROL config.
func requiredApprovals(config models.Document) int {
	d, ok := toAmount(config["requiredApprovals"])
	if !ok || !d.IsInteger() || d.IntPart() < 1 {
		return defaultRequiredApprovals
	}
	return int(d.IntPart())
}

// parseRoleSets reads the roleSets config of FINANCE_VS_SECURITY.
func parseRoleSets(config models.Document) [][]string {
	raw, ok := config["roleSets"].([]interface{})
	if !ok {
		return nil
	}
	sets := make([][]string, 0, len(raw))
	for _, entry := range raw {
		items, ok := entry.([]interface{})
		if !ok {
			continue
		}
		set := make([]string, 0, len(items))
		for _, item := range items {
			if role, ok := item.(string); ok {
				set = append(set, role)
			}
		}
		if len(set) > 0 {
			sets = append(sets, set)
		}
	}
	return sets
}

// setsHeld counts how many role sets the actor's roles intersect.
func setsHeld(roles []string, roleSets [][]string) int {
	held := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		held[r] = struct{}{}
	}
	count := 0
	for _, set := range roleSets {
		for _, r := range set {
			if _, ok := held[r]; ok {
				count++
				break
			}
		}
	}
	return count
}
