package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// GuardrailHandler handles guardrail administration requests.
type GuardrailHandler struct {
	guardrailService services.GuardrailServicer
}

// NewGuardrailHandler creates a new GuardrailHandler.
func NewGuardrailHandler(guardrailService services.GuardrailServicer) *GuardrailHandler {
	return &GuardrailHandler{guardrailService: guardrailService}
}

// CreateGuardrailRequest represents the request payload for creating a guardrail.
type CreateGuardrailRequest struct {
	Name     string                   `json:"name" binding:"required,min=1,max=100"`
	Scope    string                   `json:"scope" binding:"omitempty,max=100"`
	Rule     models.Document          `json:"rule" binding:"required"`
	Severity models.GuardrailSeverity `json:"severity" binding:"required,guardrail_severity"`
	Enabled  *bool                    `json:"enabled"`
}

// UpdateGuardrailRequest represents the request payload for updating a guardrail.
type UpdateGuardrailRequest struct {
	Name     string                    `json:"name" binding:"omitempty,min=1,max=100"`
	Scope    string                    `json:"scope" binding:"omitempty,max=100"`
	Rule     models.Document           `json:"rule"`
	Severity *models.GuardrailSeverity `json:"severity" binding:"omitempty,guardrail_severity"`
	Enabled  *bool                     `json:"enabled"`
}

// CreateGuardrail handles the creation of a new guardrail.
// @Summary     Create a guardrail
// @Description Create a guardrail; the rule tree is validated before it is stored
// @Tags        guardrails
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       request body CreateGuardrailRequest true "Guardrail details"
// @Success     201 {object} models.Guardrail "Guardrail created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /guardrails [post]
func (h *GuardrailHandler) CreateGuardrail(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGuardrailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	guardrail, err := h.guardrailService.CreateGuardrail(tenantID, getActor(c), req.Name, req.Scope, req.Rule, req.Severity, enabled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"guardrail": guardrail})
}

// UpdateGuardrail handles updating an existing guardrail.
// @Summary     Update a guardrail
// @Description Update a guardrail's name, scope, rule, severity or enabled flag
// @Tags        guardrails
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Guardrail ID"
// @Param       request body UpdateGuardrailRequest true "Fields to update"
// @Success     200 {object} models.Guardrail "Updated guardrail"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Guardrail not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /guardrails/{id} [put]
func (h *GuardrailHandler) UpdateGuardrail(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	guardrailID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGuardrailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	guardrail, err := h.guardrailService.UpdateGuardrail(tenantID, guardrailID, getActor(c), req.Name, req.Scope, req.Rule, req.Severity, req.Enabled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"guardrail": guardrail})
}

// DeleteGuardrail handles deleting a guardrail.
// @Summary     Delete a guardrail
// @Description Delete a guardrail; it no longer participates in evaluation
// @Tags        guardrails
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Guardrail ID"
// @Success     204 "Guardrail deleted"
// @Failure     404 {object} ErrorResponse "Guardrail not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /guardrails/{id} [delete]
func (h *GuardrailHandler) DeleteGuardrail(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	guardrailID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.guardrailService.DeleteGuardrail(tenantID, guardrailID, getActor(c)); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// EvaluateGuardrailsRequest represents a payload to evaluate against the
// tenant's enabled guardrails.
type EvaluateGuardrailsRequest struct {
	Payload models.Document `json:"payload" binding:"required"`
}

// EvaluateGuardrails evaluates a payload against the tenant's guardrails
// without touching any action.
// @Summary     Evaluate guardrails
// @Description Dry-run a payload against all enabled guardrails and report matches
// @Tags        guardrails
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       request body EvaluateGuardrailsRequest true "Payload to evaluate"
// @Success     200 {object} services.GuardrailVerdict "Evaluation verdict"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /guardrails/evaluate [post]
func (h *GuardrailHandler) EvaluateGuardrails(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req EvaluateGuardrailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	verdict, err := h.guardrailService.Evaluate(tenantID, req.Payload)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

// ListGuardrails lists guardrails for the tenant.
// @Summary     List guardrails
// @Description Get a paginated list of guardrails
// @Tags        guardrails
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Guardrail] "Guardrails"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /guardrails [get]
func (h *GuardrailHandler) ListGuardrails(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.guardrailService.ListGuardrails(tenantID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
