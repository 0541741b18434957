package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// ThresholdHandler handles threshold administration requests.
type ThresholdHandler struct {
	thresholdService services.ThresholdServicer
}

// NewThresholdHandler creates a new ThresholdHandler.
func NewThresholdHandler(thresholdService services.ThresholdServicer) *ThresholdHandler {
	return &ThresholdHandler{thresholdService: thresholdService}
}

// UpsertThresholdRequest represents the request payload for creating or
// replacing a threshold.
type UpsertThresholdRequest struct {
	ProfileID       uint                      `json:"profile_id"`
	Dimension       models.ThresholdDimension `json:"dimension" binding:"required,threshold_dimension"`
	DimensionKey    string                    `json:"dimension_key" binding:"required,min=1,max=100"`
	Currency        string                    `json:"currency" binding:"required,iso4217"`
	ThresholdAmount decimal.Decimal           `json:"threshold_amount" binding:"required"`
	RequireEvidence bool                      `json:"require_evidence"`
	Severity        models.BreachSeverity     `json:"severity" binding:"omitempty,breach_severity"`
	BreachAction    models.BreachAction       `json:"breach_action" binding:"omitempty,breach_action"`
}

// UpsertThreshold creates or replaces the threshold for a scope.
// @Summary     Upsert a threshold
// @Description Create or replace the monetary limit for a profile/dimension/currency scope
// @Tags        thresholds
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       request body UpsertThresholdRequest true "Threshold details"
// @Success     200 {object} models.Threshold "Threshold stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /thresholds [post]
func (h *ThresholdHandler) UpsertThreshold(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	threshold, err := h.thresholdService.UpsertThreshold(tenantID, getActor(c), &models.Threshold{
		ProfileID:        req.ProfileID,
		Dimension:        req.Dimension,
		DimensionKey:     req.DimensionKey,
		Currency:         req.Currency,
		ThresholdAmount:  req.ThresholdAmount,
		RequireEvidence:  req.RequireEvidence,
		SeverityOnBreach: req.Severity,
		ActionOnBreach:   req.BreachAction,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"threshold": threshold})
}

// DeleteThreshold removes a threshold.
// @Summary     Delete a threshold
// @Description Delete a threshold; its scope reverts to having no limit
// @Tags        thresholds
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Threshold ID"
// @Success     204 "Threshold deleted"
// @Failure     404 {object} ErrorResponse "Threshold not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /thresholds/{id} [delete]
func (h *ThresholdHandler) DeleteThreshold(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	thresholdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.thresholdService.DeleteThreshold(tenantID, thresholdID, getActor(c)); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListThresholds lists thresholds for the tenant.
// @Summary     List thresholds
// @Description Get a paginated list of thresholds
// @Tags        thresholds
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Threshold] "Thresholds"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /thresholds [get]
func (h *ThresholdHandler) ListThresholds(c *gin.Context) {
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

	result, err := h.thresholdService.ListThresholds(tenantID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
