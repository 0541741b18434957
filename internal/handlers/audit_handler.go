package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// AuditHandler handles audit trail queries.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditEventsQuery represents the query parameters for listing audit events.
type ListAuditEventsQuery struct {
	pagination.PageRequest
	Category     string     `form:"category"`
	EventType    string     `form:"event_type"`
	ResourceType string     `form:"resource_type"`
	ResourceID   string     `form:"resource_id"`
	Outcome      string     `form:"outcome"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListEvents lists audit events for the tenant.
// @Summary     List audit events
// @Description Get a paginated list of audit events, newest first
// @Tags        audit
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       category query string false "Filter by category"
// @Param       event_type query string false "Filter by event type"
// @Param       resource_type query string false "Filter by resource type"
// @Param       resource_id query string false "Filter by resource ID"
// @Param       outcome query string false "Filter by outcome"
// @Param       from query string false "Created at or after (RFC 3339)"
// @Param       to query string false "Created before (RFC 3339)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.AuditEvent] "Audit events"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-events [get]
func (h *AuditHandler) ListEvents(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListAuditEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.auditService.ListEvents(tenantID, query.PageRequest, services.AuditFilter{
		Category:     query.Category,
		EventType:    query.EventType,
		ResourceType: query.ResourceType,
		ResourceID:   query.ResourceID,
		Outcome:      query.Outcome,
		From:         query.From,
		To:           query.To,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEvent retrieves a single audit event.
// @Summary     Get an audit event
// @Description Get an audit event by ID
// @Tags        audit
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Event ID"
// @Success     200 {object} models.AuditEvent "Audit event"
// @Failure     404 {object} ErrorResponse "Event not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-events/{id} [get]
func (h *AuditHandler) GetEvent(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	eventID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	event, err := h.auditService.GetEvent(tenantID, eventID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}
