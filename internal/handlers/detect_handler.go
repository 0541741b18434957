package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// DetectHandler handles detect batch requests.
type DetectHandler struct {
	detectService services.DetectServicer
	window        time.Duration
}

// NewDetectHandler creates a new DetectHandler. window is the default
// detection window when a trigger does not supply one.
func NewDetectHandler(detectService services.DetectServicer, window time.Duration) *DetectHandler {
	return &DetectHandler{detectService: detectService, window: window}
}

// TriggerDetectRequest represents the optional window override for a
// manual detect trigger.
type TriggerDetectRequest struct {
	WindowFrom *time.Time `json:"window_from"`
	WindowTo   *time.Time `json:"window_to"`
}

// ListDetectRunsQuery represents the query parameters for listing runs.
type ListDetectRunsQuery struct {
	pagination.PageRequest
	Status string     `form:"status"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// TriggerRun starts a detect batch for the tenant.
// @Summary     Trigger a detect batch
// @Description Run detection over a time window; returns SKIPPED when a batch already holds the tenant lock
// @Tags        detect
// @Accept      json
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       request body TriggerDetectRequest false "Optional window override"
// @Success     200 {object} services.DetectRunResult "Run outcome"
// @Failure     400 {object} ErrorResponse "Invalid window"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /detect/run [post]
func (h *DetectHandler) TriggerRun(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TriggerDetectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
			return
		}
	}

	windowTo := time.Now().UTC()
	if req.WindowTo != nil {
		windowTo = req.WindowTo.UTC()
	}
	windowFrom := windowTo.Add(-h.window)
	if req.WindowFrom != nil {
		windowFrom = req.WindowFrom.UTC()
	}

	result, err := h.detectService.Run(c.Request.Context(), tenantID, windowFrom, windowTo, getActor(c), models.AuditChannelAPI)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetRun retrieves a single detect run.
// @Summary     Get a detect run
// @Description Get a detect run by ID
// @Tags        detect
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       id path int true "Run ID"
// @Success     200 {object} models.DetectRun "Run"
// @Failure     404 {object} ErrorResponse "Run not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /detect/runs/{id} [get]
func (h *DetectHandler) GetRun(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	runID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	run, err := h.detectService.GetRun(tenantID, runID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run})
}

// ListRuns lists detect runs for the tenant.
// @Summary     List detect runs
// @Description Get a paginated list of detect runs, optionally filtered by status and start time
// @Tags        detect
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Param       status query string false "Filter by status"
// @Param       from query string false "Started at or after (RFC 3339)"
// @Param       to query string false "Started before (RFC 3339)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.DetectRun] "Runs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /detect/runs [get]
func (h *DetectHandler) ListRuns(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListDetectRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter := services.DetectRunFilter{From: query.From, To: query.To}
	if query.Status != "" {
		status := models.DetectRunStatus(query.Status)
		filter.Status = &status
	}

	result, err := h.detectService.ListRuns(tenantID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSchedulerStatus reports the scheduler state for the tenant.
// @Summary     Get scheduler status
// @Description Get the detect scheduler configuration and recent run outcomes
// @Tags        detect
// @Produce     json
// @Param       X-Tenant-ID header int true "Tenant ID"
// @Success     200 {object} services.SchedulerStatus "Scheduler status"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /detect/scheduler/status [get]
func (h *DetectHandler) GetSchedulerStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.detectService.GetSchedulerStatus(tenantID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduler": status})
}
