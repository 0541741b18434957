package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// SoDHandler handles segregation-of-duties rule administration.
type SoDHandler struct {
	sodService services.SoDServicer
}

// NewSoDHandler creates a new SoDHandler.
func NewSoDHandler(sodService services.SoDServicer) *SoDHandler {
	return &SoDHandler{sodService: sodService}
}

// PatchSoDRuleRequest represents the request payload for tuning a rule.
type PatchSoDRuleRequest struct {
	Enabled  *bool               `json:"enabled"`
	Severity *models.SoDSeverity `json:"severity" binding:"omitempty,sod_severity"`
}

// ListRules lists SoD rules for the tenant.
// @Summary     List SoD rules
// @Description Get a paginated list of segregation-of-duties rules
// @Tags        sod-rules
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.SoDRule] "Rules"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sod-rules [get]
func (h *SoDHandler) ListRules(c *gin.Context) {
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

	result, err := h.sodService.ListRules(tenantID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PatchRule tunes a rule's enabled flag or severity.
// @Summary     Patch an SoD rule
// @Description Enable, disable or regrade a well-known rule; rule keys are fixed
// @Tags        sod-rules
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       rule_key path string true "Rule key"
// @Param       request body PatchSoDRuleRequest true "Fields to update"
// @Success     200 {object} models.SoDRule "Updated rule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sod-rules/{rule_key} [patch]
func (h *SoDHandler) PatchRule(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	ruleKey := c.Param("rule_key")
	if ruleKey == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "rule key is required"))
		return
	}

	var req PatchSoDRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	rule, err := h.sodService.PatchRule(tenantID, ruleKey, getActor(c), req.Enabled, req.Severity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}
