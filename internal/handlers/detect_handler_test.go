package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
)

// --- mock detect service ---

type mockDetectService struct {
	runFn                func(ctx context.Context, tenantID uint, windowFrom, windowTo time.Time, actor models.Actor, channel string) (*services.DetectRunResult, error)
	listRunsFn           func(tenantID uint, page pagination.PageRequest, filter services.DetectRunFilter) (*pagination.PageResponse[models.DetectRun], error)
	getRunFn             func(tenantID, runID uint) (*models.DetectRun, error)
	getSchedulerStatusFn func(tenantID uint) (*services.SchedulerStatus, error)
}

func (m *mockDetectService) Run(ctx context.Context, tenantID uint, windowFrom, windowTo time.Time, actor models.Actor, channel string) (*services.DetectRunResult, error) {
	if m.runFn != nil {
		return m.runFn(ctx, tenantID, windowFrom, windowTo, actor, channel)
	}
	return &services.DetectRunResult{Status: models.DetectRunStatusCompleted, Run: &models.DetectRun{}}, nil
}

func (m *mockDetectService) ListRuns(tenantID uint, page pagination.PageRequest, filter services.DetectRunFilter) (*pagination.PageResponse[models.DetectRun], error) {
	if m.listRunsFn != nil {
		return m.listRunsFn(tenantID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.DetectRun{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockDetectService) GetRun(tenantID, runID uint) (*models.DetectRun, error) {
	if m.getRunFn != nil {
		return m.getRunFn(tenantID, runID)
	}
	return &models.DetectRun{}, nil
}

func (m *mockDetectService) GetSchedulerStatus(tenantID uint) (*services.SchedulerStatus, error) {
	if m.getSchedulerStatusFn != nil {
		return m.getSchedulerStatusFn(tenantID)
	}
	return &services.SchedulerStatus{}, nil
}

var _ services.DetectServicer = (*mockDetectService)(nil)

func setupDetectRouter(handler *DetectHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectIdentity(1, models.Actor{Type: models.ActorTypeHuman, ID: 7}))
	auth.POST("/detect/run", handler.TriggerRun)
	auth.GET("/detect/runs", handler.ListRuns)
	auth.GET("/detect/runs/:id", handler.GetRun)
	auth.GET("/detect/scheduler/status", handler.GetSchedulerStatus)
	return r
}

// --- tests ---

func TestDetectHandler_TriggerRun(t *testing.T) {
	t.Run("returns 200 with completed run", func(t *testing.T) {
		svc := &mockDetectService{
			runFn: func(_ context.Context, _ uint, _, _ time.Time, _ models.Actor, _ string) (*services.DetectRunResult, error) {
				return &services.DetectRunResult{
					Status: models.DetectRunStatusCompleted,
					Run: &models.DetectRun{
						Base:   models.Base{ID: 11},
						Status: models.DetectRunStatusCompleted,
						Counts: models.Document{"created": 3, "updated": 1, "suppressed": 0},
					},
				}, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "POST", "/detect/run", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		runResult := result["result"].(map[string]interface{})
		if runResult["status"] != "COMPLETED" {
			t.Errorf("expected COMPLETED, got %v", runResult["status"])
		}
	})

	t.Run("defaults window to configured duration", func(t *testing.T) {
		var capturedFrom, capturedTo time.Time
		svc := &mockDetectService{
			runFn: func(_ context.Context, _ uint, windowFrom, windowTo time.Time, _ models.Actor, _ string) (*services.DetectRunResult, error) {
				capturedFrom = windowFrom
				capturedTo = windowTo
				return &services.DetectRunResult{Status: models.DetectRunStatusCompleted}, nil
			},
		}
		handler := NewDetectHandler(svc, 30*time.Minute)
		r := setupDetectRouter(handler)

		doRequest(r, "POST", "/detect/run", "")

		if got := capturedTo.Sub(capturedFrom); got != 30*time.Minute {
			t.Errorf("expected 30m window, got %v", got)
		}
	})

	t.Run("honors window override from the body", func(t *testing.T) {
		var capturedFrom, capturedTo time.Time
		svc := &mockDetectService{
			runFn: func(_ context.Context, _ uint, windowFrom, windowTo time.Time, _ models.Actor, _ string) (*services.DetectRunResult, error) {
				capturedFrom = windowFrom
				capturedTo = windowTo
				return &services.DetectRunResult{Status: models.DetectRunStatusCompleted}, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		doRequest(r, "POST", "/detect/run",
			`{"window_from":"2025-06-01T00:00:00Z","window_to":"2025-06-01T06:00:00Z"}`)

		wantFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		wantTo := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
		if !capturedFrom.Equal(wantFrom) || !capturedTo.Equal(wantTo) {
			t.Errorf("expected [%v, %v], got [%v, %v]", wantFrom, wantTo, capturedFrom, capturedTo)
		}
	})

	t.Run("returns 200 with skip details when a run holds the lock", func(t *testing.T) {
		runID := uint(4)
		since := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc := &mockDetectService{
			runFn: func(_ context.Context, _ uint, _, _ time.Time, _ models.Actor, _ string) (*services.DetectRunResult, error) {
				return &services.DetectRunResult{
					Status:       models.DetectRunStatusSkipped,
					RunningRunID: &runID,
					RunningSince: &since,
					SkipReason:   "another detect batch is running for this tenant",
				}, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "POST", "/detect/run", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		runResult := result["result"].(map[string]interface{})
		if runResult["status"] != "SKIPPED" {
			t.Errorf("expected SKIPPED, got %v", runResult["status"])
		}
		if runResult["running_run_id"].(float64) != 4 {
			t.Errorf("expected running_run_id=4, got %v", runResult["running_run_id"])
		}
	})

	t.Run("returns 400 on inverted window", func(t *testing.T) {
		svc := &mockDetectService{
			runFn: func(_ context.Context, _ uint, _, _ time.Time, _ models.Actor, _ string) (*services.DetectRunResult, error) {
				return nil, apperrors.WithMessage(apperrors.ErrValidation, "window_from must be before window_to")
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "POST", "/detect/run",
			`{"window_from":"2025-06-02T00:00:00Z","window_to":"2025-06-01T00:00:00Z"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		handler := NewDetectHandler(&mockDetectService{}, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "POST", "/detect/run", `{"window_from":"yesterday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without identity", func(t *testing.T) {
		handler := NewDetectHandler(&mockDetectService{}, time.Hour)
		r := gin.New()
		r.POST("/detect/run", handler.TriggerRun)

		rec := doRequest(r, "POST", "/detect/run", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestDetectHandler_GetRun(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockDetectService{
			getRunFn: func(_, runID uint) (*models.DetectRun, error) {
				return &models.DetectRun{
					Base:   models.Base{ID: runID},
					Status: models.DetectRunStatusCompleted,
				}, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "GET", "/detect/runs/2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		run := result["run"].(map[string]interface{})
		if run["status"] != "COMPLETED" {
			t.Errorf("expected COMPLETED, got %v", run["status"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockDetectService{
			getRunFn: func(_, _ uint) (*models.DetectRun, error) {
				return nil, apperrors.ErrDetectRunNotFound
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "GET", "/detect/runs/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DETECT_RUN_NOT_FOUND")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		handler := NewDetectHandler(&mockDetectService{}, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "GET", "/detect/runs/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDetectHandler_ListRuns(t *testing.T) {
	t.Run("returns 200 with paginated runs", func(t *testing.T) {
		svc := &mockDetectService{
			listRunsFn: func(_ uint, _ pagination.PageRequest, _ services.DetectRunFilter) (*pagination.PageResponse[models.DetectRun], error) {
				resp := pagination.NewPageResponse([]models.DetectRun{
					{Base: models.Base{ID: 1}, Status: models.DetectRunStatusCompleted},
					{Base: models.Base{ID: 2}, Status: models.DetectRunStatusFailed},
				}, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "GET", "/detect/runs", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		if len(data) != 2 {
			t.Errorf("expected 2 runs, got %d", len(data))
		}
	})

	t.Run("passes filter params to service", func(t *testing.T) {
		var capturedFilter services.DetectRunFilter
		svc := &mockDetectService{
			listRunsFn: func(_ uint, _ pagination.PageRequest, filter services.DetectRunFilter) (*pagination.PageResponse[models.DetectRun], error) {
				capturedFilter = filter
				resp := pagination.NewPageResponse([]models.DetectRun{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		doRequest(r, "GET", "/detect/runs?status=FAILED&from=2025-06-01T00:00:00Z", "")

		if capturedFilter.Status == nil || *capturedFilter.Status != models.DetectRunStatusFailed {
			t.Error("expected status=FAILED to be passed")
		}
		if capturedFilter.From == nil || !capturedFilter.From.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
			t.Error("expected from filter to be passed")
		}
	})
}

func TestDetectHandler_GetSchedulerStatus(t *testing.T) {
	t.Run("returns 200 with status", func(t *testing.T) {
		lastRunID := uint(8)
		svc := &mockDetectService{
			getSchedulerStatusFn: func(_ uint) (*services.SchedulerStatus, error) {
				return &services.SchedulerStatus{
					Enabled:         true,
					IntervalMinutes: 15,
					LastRunID:       &lastRunID,
					Running:         false,
				}, nil
			},
		}
		handler := NewDetectHandler(svc, time.Hour)
		r := setupDetectRouter(handler)

		rec := doRequest(r, "GET", "/detect/scheduler/status", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		status := result["scheduler"].(map[string]interface{})
		if status["enabled"] != true {
			t.Errorf("expected enabled=true, got %v", status["enabled"])
		}
		if status["interval_minutes"].(float64) != 15 {
			t.Errorf("expected interval_minutes=15, got %v", status["interval_minutes"])
		}
	})
}
