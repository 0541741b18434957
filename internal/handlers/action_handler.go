package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// ActionHandler handles action workflow requests.
type ActionHandler struct {
	actionService services.ActionServicer
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(actionService services.ActionServicer) *ActionHandler {
	return &ActionHandler{actionService: actionService}
}

// ActionRequest represents the request payload for simulating or proposing
// an action.
type ActionRequest struct {
	CaseID     uint            `json:"case_id" binding:"required"`
	ActionType string          `json:"action_type" binding:"required,min=1,max=100"`
	Payload    models.Document `json:"payload" binding:"required"`
}

// ListActionsQuery represents the query parameters for listing actions.
type ListActionsQuery struct {
	pagination.PageRequest
	CaseID     *uint  `form:"case_id"`
	Status     string `form:"status"`
	ActionType string `form:"action_type"`
}

// Simulate previews an action without persisting it.
// @Summary     Simulate an action
// @Description Preview the effect of an action without persisting anything or consulting policy
// @Tags        actions
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       request body ActionRequest true "Action to simulate"
// @Success     200 {object} services.SimulationResult "Simulation result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Missing tenant"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions/simulate [post]
func (h *ActionHandler) Simulate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.actionService.Simulate(tenantID, req.CaseID, req.ActionType, req.Payload, getActor(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"simulation": result})
}

// Propose submits an action for governance.
// @Summary     Propose an action
// @Description Run guardrail, threshold and SoD evaluation and persist the action
// @Tags        actions
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       request body ActionRequest true "Action to propose"
// @Success     201 {object} services.ProposalResult "Proposal accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate open proposal"
// @Failure     422 {object} ErrorResponse "Blocked by policy"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions/propose [post]
func (h *ActionHandler) Propose(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.actionService.Propose(tenantID, req.CaseID, req.ActionType, req.Payload, getActor(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proposal": result})
}

// Approve records an approval decision for a pending action.
// @Summary     Approve an action
// @Description Record an approval; the action advances once all required approvers have signed off
// @Tags        actions
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Action ID"
// @Success     200 {object} models.Action "Updated action"
// @Failure     404 {object} ErrorResponse "Action not found"
// @Failure     409 {object} ErrorResponse "Not pending approval"
// @Failure     422 {object} ErrorResponse "SoD violation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions/{id}/approve [post]
func (h *ActionHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	action, err := h.actionService.Approve(c.Request.Context(), tenantID, actionID, getActor(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action})
}

// Execute runs an approved action.
// @Summary     Execute an action
// @Description Execute an approved action; executor failures land the action in FAILED
// @Tags        actions
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Action ID"
// @Success     200 {object} models.Action "Executed or failed action"
// @Failure     404 {object} ErrorResponse "Action not found"
// @Failure     409 {object} ErrorResponse "Not approved"
// @Failure     422 {object} ErrorResponse "Missing evidence"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions/{id}/execute [post]
func (h *ActionHandler) Execute(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	action, err := h.actionService.Execute(c.Request.Context(), tenantID, actionID, getActor(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action})
}

// Cancel withdraws an action that has not started executing.
// @Summary     Cancel an action
// @Description Cancel a proposed, pending or approved action
// @Tags        actions
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Action ID"
// @Success     200 {object} models.Action "Canceled action"
// @Failure     404 {object} ErrorResponse "Action not found"
// @Failure     409 {object} ErrorResponse "Not cancelable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions/{id}/cancel [post]
func (h *ActionHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	action, err := h.actionService.Cancel(tenantID, actionID, getActor(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action})
}

// GetAction retrieves a single action.
// @Summary     Get an action
// @Description Get an action by ID
// @Tags        actions
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Action ID"
// @Success     200 {object} models.Action "Action"
// @Failure     404 {object} ErrorResponse "Action not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions/{id} [get]
func (h *ActionHandler) GetAction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	actionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	action, err := h.actionService.GetAction(tenantID, actionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"action": action})
}

// ListActions lists actions for the tenant.
// @Summary     List actions
// @Description Get a paginated list of actions, optionally filtered by case, status and type
// @Tags        actions
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       case_id query int false "Filter by case"
// @Param       status query string false "Filter by status"
// @Param       action_type query string false "Filter by action type"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Action] "Actions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /actions [get]
func (h *ActionHandler) ListActions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListActionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter := services.ActionFilter{
		CaseID:     query.CaseID,
		ActionType: query.ActionType,
	}
	if query.Status != "" {
		status := models.ActionStatus(query.Status)
		filter.Status = &status
	}

	page, err := h.actionService.ListActions(tenantID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
