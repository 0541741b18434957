package services

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/logger"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/uuid"
)

// auditService writes and queries the append-only audit trail.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record persists an audit event with a computed diff. Failures are logged
// but never propagate: a broken audit write must not fail the governed
// operation it describes.
func (s *auditService) Record(tenantID uint, entry AuditEntry) {
	traceID := entry.TraceID
	if traceID == "" {
		traceID = uuid.New()
	}

	event := &models.AuditEvent{
		TenantID:     tenantID,
		Category:     entry.Category,
		EventType:    entry.EventType,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ActorType:    entry.Actor.Type,
		ActorID:      entry.Actor.ID,
		Channel:      entry.Channel,
		Outcome:      entry.Outcome,
		Severity:     entry.Severity,
		Before:       entry.Before,
		After:        entry.After,
		Diff:         ComputeDiff(entry.Before, entry.After),
		TraceID:      traceID,
		RequestID:    entry.RequestID,
	}

	if err := s.db.Create(event).Error; err != nil {
		logger.Get().Errorw("failed to create audit event",
			"error", err,
			"tenant_id", tenantID,
			"event_type", entry.EventType,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}

// ListEvents retrieves a paginated list of audit events for a tenant,
// newest first.
func (s *auditService) ListEvents(tenantID uint, page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditEvent], error) {
	page.Defaults()

	base := s.db.Model(&models.AuditEvent{}).Where("tenant_id = ?", tenantID)
	if filter.Category != "" {
		base = base.Where("category = ?", filter.Category)
	}
	if filter.EventType != "" {
		base = base.Where("event_type = ?", filter.EventType)
	}
	if filter.ResourceType != "" {
		base = base.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		base = base.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Outcome != "" {
		base = base.Where("outcome = ?", filter.Outcome)
	}
	if filter.From != nil {
		base = base.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("created_at < ?", *filter.To)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var events []models.AuditEvent
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&events).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(events, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetEvent retrieves a single audit event by ID for a tenant.
func (s *auditService) GetEvent(tenantID, eventID uint) (*models.AuditEvent, error) {
	var event models.AuditEvent
	if err := s.db.Where("id = ? AND tenant_id = ?", eventID, tenantID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuditEventNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &event, nil
}

// ComputeDiff returns the keys whose values differ between before and
// after. Each changed key maps to {"before": v, "after": v}, with the
// missing side omitted for added or removed keys. Values are compared by
// their JSON encoding so 100 and 100.0 are equal. Returns nil when both
// sides are nil.
func ComputeDiff(before, after models.Document) models.Document {
	if before == nil && after == nil {
		return nil
	}

	diff := models.Document{}
	for key, beforeVal := range before {
		afterVal, ok := after[key]
		if !ok {
			diff[key] = map[string]interface{}{"before": beforeVal}
			continue
		}
		if !jsonEqual(beforeVal, afterVal) {
			diff[key] = map[string]interface{}{"before": beforeVal, "after": afterVal}
		}
	}
	for key, afterVal := range after {
		if _, ok := before[key]; !ok {
			diff[key] = map[string]interface{}{"after": afterVal}
		}
	}
	return diff
}

// jsonEqual compares two values by their canonical JSON encoding.
func jsonEqual(a, b interface{}) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}
