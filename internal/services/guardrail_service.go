package services

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/logger"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/policy"
)

// guardrailEvalErrorCode marks a guardrail whose rule tree could not be
// evaluated. Such guardrails block regardless of their configured severity.
const guardrailEvalErrorCode = "GUARDRAIL_EVAL_ERROR"

// guardrailService handles guardrail configuration and evaluation.
type guardrailService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewGuardrailService creates a new GuardrailServicer.
func NewGuardrailService(db *gorm.DB, audit AuditServicer) GuardrailServicer {
	return &guardrailService{db: db, audit: audit}
}

// CreateGuardrail creates a new guardrail. The rule tree is validated at
// write time so a malformed rule is rejected before it can silently block
// every action.
func (s *guardrailService) CreateGuardrail(tenantID uint, actor models.Actor, name, scope string, rule models.Document, severity models.GuardrailSeverity, enabled bool) (*models.Guardrail, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "guardrail name is required")
	}
	if severity != models.GuardrailSeverityBlock && severity != models.GuardrailSeverityWarn {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown severity %q", severity))
	}
	if _, err := policy.Parse(rule); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("invalid rule: %v", err))
	}

	guardrail := &models.Guardrail{
		TenantID: tenantID,
		Name:     name,
		Scope:    scope,
		Rule:     rule,
		Severity: severity,
		Enabled:  enabled,
	}

	if err := s.db.Create(guardrail).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryAdmin,
		EventType:    "GUARDRAIL_CREATED",
		ResourceType: "guardrail",
		ResourceID:   strconv.FormatUint(uint64(guardrail.ID), 10),
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      models.AuditOutcomeSuccess,
		After:        guardrailSnapshot(guardrail),
	})

	return guardrail, nil
}

// UpdateGuardrail updates an existing guardrail. Empty name/scope and nil
// rule/severity/enabled leave the current value unchanged.
func (s *guardrailService) UpdateGuardrail(tenantID, guardrailID uint, actor models.Actor, name, scope string, rule models.Document, severity *models.GuardrailSeverity, enabled *bool) (*models.Guardrail, error) {
	guardrail, err := s.getGuardrail(tenantID, guardrailID)
	if err != nil {
		return nil, err
	}
	before := guardrailSnapshot(guardrail)

	if name != "" {
		guardrail.Name = name
	}
	if scope != "" {
		guardrail.Scope = scope
	}
	if rule != nil {
		if _, err := policy.Parse(rule); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("invalid rule: %v", err))
		}
		guardrail.Rule = rule
	}
	if severity != nil {
		if *severity != models.GuardrailSeverityBlock && *severity != models.GuardrailSeverityWarn {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown severity %q", *severity))
		}
		guardrail.Severity = *severity
	}
	if enabled != nil {
		guardrail.Enabled = *enabled
	}

	if err := s.db.Save(guardrail).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryAdmin,
		EventType:    "GUARDRAIL_UPDATED",
		ResourceType: "guardrail",
		ResourceID:   strconv.FormatUint(uint64(guardrail.ID), 10),
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      models.AuditOutcomeSuccess,
		Before:       before,
		After:        guardrailSnapshot(guardrail),
	})

	return guardrail, nil
}

// DeleteGuardrail soft-deletes a guardrail.
func (s *guardrailService) DeleteGuardrail(tenantID, guardrailID uint, actor models.Actor) error {
	guardrail, err := s.getGuardrail(tenantID, guardrailID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(guardrail).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryAdmin,
		EventType:    "GUARDRAIL_DELETED",
		ResourceType: "guardrail",
		ResourceID:   strconv.FormatUint(uint64(guardrail.ID), 10),
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      models.AuditOutcomeSuccess,
		Before:       guardrailSnapshot(guardrail),
	})

	return nil
}

// ListGuardrails retrieves a paginated list of guardrails for a tenant.
func (s *guardrailService) ListGuardrails(tenantID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Guardrail], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Guardrail{}).Where("tenant_id = ?", tenantID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var guardrails []models.Guardrail
	if err := base.Scopes(pagination.Paginate(page)).Find(&guardrails).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(guardrails, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Evaluate runs every enabled guardrail against the payload. A guardrail
// whose rule cannot be parsed or evaluated fails closed: it is reported
// as a blocking match with an error code instead of being skipped.
func (s *guardrailService) Evaluate(tenantID uint, payload models.Document) (*GuardrailVerdict, error) {
	var guardrails []models.Guardrail
	if err := s.db.Where("tenant_id = ? AND enabled = ?", tenantID, true).Order("id").Find(&guardrails).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	verdict := &GuardrailVerdict{Matches: []GuardrailMatch{}}
	for _, g := range guardrails {
		cond, err := policy.Parse(g.Rule)
		if err == nil {
			var matched bool
			matched, err = cond.Eval(payload)
			if err == nil {
				if matched {
					verdict.Matches = append(verdict.Matches, GuardrailMatch{
						GuardrailID: g.ID,
						Name:        g.Name,
						Severity:    g.Severity,
					})
					if g.Severity == models.GuardrailSeverityBlock {
						verdict.Blocked = true
					}
				}
				continue
			}
		}

		logger.Get().Warnw("guardrail evaluation failed",
			"tenant_id", tenantID,
			"guardrail_id", g.ID,
			"guardrail_name", g.Name,
			"error", err,
		)
		verdict.Matches = append(verdict.Matches, GuardrailMatch{
			GuardrailID: g.ID,
			Name:        g.Name,
			Severity:    models.GuardrailSeverityBlock,
			ErrorCode:   guardrailEvalErrorCode,
		})
		verdict.Blocked = true
	}

	return verdict, nil
}

func (s *guardrailService) getGuardrail(tenantID, guardrailID uint) (*models.Guardrail, error) {
	var guardrail models.Guardrail
	if err := s.db.Where("id = ? AND tenant_id = ?", guardrailID, tenantID).First(&guardrail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGuardrailNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &guardrail, nil
}

func guardrailSnapshot(g *models.Guardrail) models.Document {
	return models.Document{
		"name":     g.Name,
		"scope":    g.Scope,
		"rule":     map[string]interface{}(g.Rule),
		"severity": string(g.Severity),
		"enabled":  g.Enabled,
	}
}
