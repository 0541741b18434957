package services

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
)

// thresholdService handles monetary threshold configuration and evaluation.
type thresholdService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewThresholdService creates a new ThresholdServicer.
func NewThresholdService(db *gorm.DB, audit AuditServicer) ThresholdServicer {
	return &thresholdService{db: db, audit: audit}
}

// UpsertThreshold creates or replaces the threshold for a
// (profile, dimension, dimension key, currency) scope.
func (s *thresholdService) UpsertThreshold(tenantID uint, actor models.Actor, t *models.Threshold) (*models.Threshold, error) {
	if t.Dimension != models.DimensionAccount && t.Dimension != models.DimensionCostCenter && t.Dimension != models.DimensionCategory {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("unknown dimension %q", t.Dimension))
	}
	if t.DimensionKey == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "dimension key is required")
	}
	if len(t.Currency) != 3 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "currency must be a 3-letter ISO 4217 code")
	}
	if t.ThresholdAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "threshold amount must not be negative")
	}
	if t.ProfileID == 0 {
		t.ProfileID = 1
	}
	if t.SeverityOnBreach == "" {
		t.SeverityOnBreach = models.BreachSeverityMedium
	}
	if t.ActionOnBreach == "" {
		t.ActionOnBreach = models.BreachActionFlagForReview
	}
	t.TenantID = tenantID

	var existing models.Threshold
	err := s.db.Where(
		"tenant_id = ? AND profile_id = ? AND dimension = ? AND dimension_key = ? AND currency = ?",
		tenantID, t.ProfileID, t.Dimension, t.DimensionKey, t.Currency,
	).First(&existing).Error
	switch {
	case err == nil:
		existing.ThresholdAmount = t.ThresholdAmount
		existing.RequireEvidence = t.RequireEvidence
		existing.SeverityOnBreach = t.SeverityOnBreach
		existing.ActionOnBreach = t.ActionOnBreach
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		*t = existing
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(t).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryAdmin,
		EventType:    "THRESHOLD_UPSERTED",
		ResourceType: "threshold",
		ResourceID:   strconv.FormatUint(uint64(t.ID), 10),
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      models.AuditOutcomeSuccess,
		After: models.Document{
			"dimension":        string(t.Dimension),
			"dimension_key":    t.DimensionKey,
			"currency":         t.Currency,
			"threshold_amount": t.ThresholdAmount.String(),
			"action_on_breach": string(t.ActionOnBreach),
		},
	})

	return t, nil
}

// DeleteThreshold soft-deletes a threshold.
func (s *thresholdService) DeleteThreshold(tenantID, thresholdID uint, actor models.Actor) error {
	var threshold models.Threshold
	if err := s.db.Where("id = ? AND tenant_id = ?", thresholdID, tenantID).First(&threshold).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrThresholdNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Delete(&threshold).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryAdmin,
		EventType:    "THRESHOLD_DELETED",
		ResourceType: "threshold",
		ResourceID:   strconv.FormatUint(uint64(threshold.ID), 10),
		Actor:        actor,
		Channel:      models.AuditChannelAPI,
		Outcome:      models.AuditOutcomeSuccess,
		Before: models.Document{
			"dimension":     string(threshold.Dimension),
			"dimension_key": threshold.DimensionKey,
			"currency":      threshold.Currency,
		},
	})

	return nil
}

// ListThresholds retrieves a paginated list of thresholds for a tenant.
func (s *thresholdService) ListThresholds(tenantID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Threshold], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Threshold{}).Where("tenant_id = ?", tenantID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var thresholds []models.Threshold
	if err := base.Scopes(pagination.Paginate(page)).Find(&thresholds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(thresholds, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Evaluate compares an amount against the configured threshold for the
// given scope. A missing threshold row means no limit and yields no
// breach. Negative amounts are rejected before any lookup.
func (s *thresholdService) Evaluate(tenantID, profileID uint, dimension models.ThresholdDimension, dimensionKey, currency string, amount decimal.Decimal) (*ThresholdBreach, error) {
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "amount must not be negative")
	}

	var threshold models.Threshold
	err := s.db.Where(
		"tenant_id = ? AND profile_id = ? AND dimension = ? AND dimension_key = ? AND currency = ?",
		tenantID, profileID, dimension, dimensionKey, currency,
	).First(&threshold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if amount.LessThanOrEqual(threshold.ThresholdAmount) {
		return nil, nil
	}

	return &ThresholdBreach{
		ThresholdID:     threshold.ID,
		Dimension:       threshold.Dimension,
		DimensionKey:    threshold.DimensionKey,
		Currency:        threshold.Currency,
		ThresholdAmount: threshold.ThresholdAmount,
		Amount:          amount,
		Severity:        threshold.SeverityOnBreach,
		Action:          threshold.ActionOnBreach,
		RequireEvidence: threshold.RequireEvidence,
	}, nil
}
