package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/middleware"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/services"
	"actiongate/internal/validator"
)

// --- mock action service ---

type mockActionService struct {
	simulateFn    func(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*services.SimulationResult, error)
	proposeFn     func(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*services.ProposalResult, error)
	approveFn     func(ctx context.Context, tenantID, actionID uint, approver models.Actor) (*models.Action, error)
	executeFn     func(ctx context.Context, tenantID, actionID uint, actor models.Actor) (*models.Action, error)
	cancelFn      func(tenantID, actionID uint, actor models.Actor) (*models.Action, error)
	getActionFn   func(tenantID, actionID uint) (*models.Action, error)
	listActionsFn func(tenantID uint, page pagination.PageRequest, filter services.ActionFilter) (*pagination.PageResponse[models.Action], error)
}

func (m *mockActionService) Simulate(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*services.SimulationResult, error) {
	if m.simulateFn != nil {
		return m.simulateFn(tenantID, caseID, actionType, payload, actor)
	}
	return &services.SimulationResult{}, nil
}

func (m *mockActionService) Propose(tenantID, caseID uint, actionType string, payload models.Document, actor models.Actor) (*services.ProposalResult, error) {
	if m.proposeFn != nil {
		return m.proposeFn(tenantID, caseID, actionType, payload, actor)
	}
	return &services.ProposalResult{Action: &models.Action{}}, nil
}

func (m *mockActionService) Approve(ctx context.Context, tenantID, actionID uint, approver models.Actor) (*models.Action, error) {
	if m.approveFn != nil {
		return m.approveFn(ctx, tenantID, actionID, approver)
	}
	return &models.Action{}, nil
}

func (m *mockActionService) Execute(ctx context.Context, tenantID, actionID uint, actor models.Actor) (*models.Action, error) {
	if m.executeFn != nil {
		return m.executeFn(ctx, tenantID, actionID, actor)
	}
	return &models.Action{}, nil
}

func (m *mockActionService) Cancel(tenantID, actionID uint, actor models.Actor) (*models.Action, error) {
	if m.cancelFn != nil {
		return m.cancelFn(tenantID, actionID, actor)
	}
	return &models.Action{}, nil
}

func (m *mockActionService) GetAction(tenantID, actionID uint) (*models.Action, error) {
	if m.getActionFn != nil {
		return m.getActionFn(tenantID, actionID)
	}
	return &models.Action{}, nil
}

func (m *mockActionService) ListActions(tenantID uint, page pagination.PageRequest, filter services.ActionFilter) (*pagination.PageResponse[models.Action], error) {
	if m.listActionsFn != nil {
		return m.listActionsFn(tenantID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Action{}, 1, 20, 0)
	return &resp, nil
}

var _ services.ActionServicer = (*mockActionService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectIdentity(tenantID uint, actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, tenantID)
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func setupActionRouter(handler *ActionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectIdentity(1, models.Actor{Type: models.ActorTypeHuman, ID: 7}))
	auth.POST("/actions/simulate", handler.Simulate)
	auth.POST("/actions/propose", handler.Propose)
	auth.POST("/actions/:id/approve", handler.Approve)
	auth.POST("/actions/:id/execute", handler.Execute)
	auth.POST("/actions/:id/cancel", handler.Cancel)
	auth.GET("/actions/:id", handler.GetAction)
	auth.GET("/actions", handler.ListActions)
	return r
}

// --- tests ---

func TestActionHandler_Simulate(t *testing.T) {
	t.Run("returns 200 with simulation", func(t *testing.T) {
		svc := &mockActionService{
			simulateFn: func(_, caseID uint, actionType string, payload models.Document, _ models.Actor) (*services.SimulationResult, error) {
				return &services.SimulationResult{
					Before: models.Document{},
					After:  payload,
					Diff: models.Document{
						"status": map[string]interface{}{"after": "contained"},
					},
					ValidationErrors: []string{},
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/simulate",
			`{"case_id":1,"action_type":"contain_host","payload":{"status":"contained"}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		sim := result["simulation"].(map[string]interface{})
		after := sim["after"].(map[string]interface{})
		if after["status"] != "contained" {
			t.Errorf("expected status contained, got %v", after["status"])
		}
	})

	t.Run("returns 400 on missing payload", func(t *testing.T) {
		handler := NewActionHandler(&mockActionService{})
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/simulate",
			`{"case_id":1,"action_type":"contain_host"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})

	t.Run("returns 400 on missing case_id", func(t *testing.T) {
		handler := NewActionHandler(&mockActionService{})
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/simulate",
			`{"action_type":"contain_host","payload":{"status":"contained"}}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without identity", func(t *testing.T) {
		handler := NewActionHandler(&mockActionService{})
		r := gin.New()
		r.POST("/actions/simulate", handler.Simulate)

		rec := doRequest(r, "POST", "/actions/simulate",
			`{"case_id":1,"action_type":"contain_host","payload":{}}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestActionHandler_Propose(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockActionService{
			proposeFn: func(_, caseID uint, actionType string, _ models.Document, actor models.Actor) (*services.ProposalResult, error) {
				return &services.ProposalResult{
					Action: &models.Action{
						Base:                 models.Base{ID: 42},
						CaseID:               caseID,
						ActionType:           actionType,
						Status:               models.ActionStatusPendingApproval,
						RequestedByActorType: actor.Type,
						RequestedByActorID:   actor.ID,
					},
					RequiresApproval: true,
					Reasons:          []string{"amount exceeds account threshold"},
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/propose",
			`{"case_id":9,"action_type":"refund","payload":{"amount":25000,"currency":"USD"}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		proposal := result["proposal"].(map[string]interface{})
		if proposal["requires_approval"] != true {
			t.Errorf("expected requires_approval=true, got %v", proposal["requires_approval"])
		}
		action := proposal["action"].(map[string]interface{})
		if action["status"] != "PENDING_APPROVAL" {
			t.Errorf("expected PENDING_APPROVAL, got %v", action["status"])
		}
	})

	t.Run("passes actor from identity middleware", func(t *testing.T) {
		var capturedActor models.Actor
		svc := &mockActionService{
			proposeFn: func(_, _ uint, _ string, _ models.Document, actor models.Actor) (*services.ProposalResult, error) {
				capturedActor = actor
				return &services.ProposalResult{Action: &models.Action{}}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		doRequest(r, "POST", "/actions/propose",
			`{"case_id":1,"action_type":"refund","payload":{"amount":1}}`)

		if capturedActor.Type != models.ActorTypeHuman || capturedActor.ID != 7 {
			t.Errorf("expected human actor 7, got %+v", capturedActor)
		}
	})

	t.Run("returns 422 when blocked by policy", func(t *testing.T) {
		svc := &mockActionService{
			proposeFn: func(_, _ uint, _ string, _ models.Document, _ models.Actor) (*services.ProposalResult, error) {
				return nil, apperrors.WithMessage(apperrors.ErrPolicyViolation, "guardrail no_weekend_refunds matched")
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/propose",
			`{"case_id":1,"action_type":"refund","payload":{"amount":1}}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "POLICY_VIOLATION")
	})

	t.Run("returns 409 on duplicate open proposal", func(t *testing.T) {
		svc := &mockActionService{
			proposeFn: func(_, _ uint, _ string, _ models.Document, _ models.Actor) (*services.ProposalResult, error) {
				return nil, apperrors.ErrDuplicateProposal
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/propose",
			`{"case_id":1,"action_type":"refund","payload":{"amount":1}}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_PROPOSAL")
	})

	t.Run("returns 400 on empty action_type", func(t *testing.T) {
		handler := NewActionHandler(&mockActionService{})
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/propose",
			`{"case_id":1,"action_type":"","payload":{"amount":1}}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestActionHandler_Approve(t *testing.T) {
	t.Run("returns 200 with updated action", func(t *testing.T) {
		svc := &mockActionService{
			approveFn: func(_ context.Context, _, actionID uint, _ models.Actor) (*models.Action, error) {
				return &models.Action{
					Base:   models.Base{ID: actionID},
					Status: models.ActionStatusApproved,
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/approve", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		action := result["action"].(map[string]interface{})
		if action["status"] != "APPROVED" {
			t.Errorf("expected APPROVED, got %v", action["status"])
		}
	})

	t.Run("returns 422 on self approval", func(t *testing.T) {
		svc := &mockActionService{
			approveFn: func(_ context.Context, _, _ uint, _ models.Actor) (*models.Action, error) {
				return nil, apperrors.WithMessage(apperrors.ErrPolicyViolation, "requester cannot approve their own action")
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/approve", "")

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "POLICY_VIOLATION")
	})

	t.Run("returns 409 when not pending approval", func(t *testing.T) {
		svc := &mockActionService{
			approveFn: func(_ context.Context, _, _ uint, _ models.Actor) (*models.Action, error) {
				return nil, apperrors.ErrInvalidStateTransition
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/approve", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_STATE_TRANSITION")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		handler := NewActionHandler(&mockActionService{})
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/abc/approve", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockActionService{
			approveFn: func(_ context.Context, _, _ uint, _ models.Actor) (*models.Action, error) {
				return nil, apperrors.ErrActionNotFound
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/999/approve", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACTION_NOT_FOUND")
	})
}

func TestActionHandler_Execute(t *testing.T) {
	t.Run("returns 200 with executed action", func(t *testing.T) {
		svc := &mockActionService{
			executeFn: func(_ context.Context, _, actionID uint, _ models.Actor) (*models.Action, error) {
				return &models.Action{
					Base:   models.Base{ID: actionID},
					Status: models.ActionStatusExecuted,
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/execute", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		action := result["action"].(map[string]interface{})
		if action["status"] != "EXECUTED" {
			t.Errorf("expected EXECUTED, got %v", action["status"])
		}
	})

	t.Run("returns 200 when executor failed and action landed in FAILED", func(t *testing.T) {
		svc := &mockActionService{
			executeFn: func(_ context.Context, _, actionID uint, _ models.Actor) (*models.Action, error) {
				return &models.Action{
					Base:          models.Base{ID: actionID},
					Status:        models.ActionStatusFailed,
					FailureReason: "downstream timeout",
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/execute", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		action := result["action"].(map[string]interface{})
		if action["status"] != "FAILED" {
			t.Errorf("expected FAILED, got %v", action["status"])
		}
		if action["failure_reason"] != "downstream timeout" {
			t.Errorf("expected failure reason, got %v", action["failure_reason"])
		}
	})

	t.Run("returns 409 when not approved", func(t *testing.T) {
		svc := &mockActionService{
			executeFn: func(_ context.Context, _, _ uint, _ models.Actor) (*models.Action, error) {
				return nil, apperrors.ErrInvalidStateTransition
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/execute", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("returns 422 when evidence is missing", func(t *testing.T) {
		svc := &mockActionService{
			executeFn: func(_ context.Context, _, _ uint, _ models.Actor) (*models.Action, error) {
				return nil, apperrors.WithMessage(apperrors.ErrPolicyViolation, "execution requires evidence references")
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/execute", "")

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "POLICY_VIOLATION")
	})
}

func TestActionHandler_Cancel(t *testing.T) {
	t.Run("returns 200 with canceled action", func(t *testing.T) {
		svc := &mockActionService{
			cancelFn: func(_, actionID uint, _ models.Actor) (*models.Action, error) {
				return &models.Action{
					Base:   models.Base{ID: actionID},
					Status: models.ActionStatusCanceled,
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/cancel", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		action := result["action"].(map[string]interface{})
		if action["status"] != "CANCELED" {
			t.Errorf("expected CANCELED, got %v", action["status"])
		}
	})

	t.Run("returns 409 when already executing", func(t *testing.T) {
		svc := &mockActionService{
			cancelFn: func(_, _ uint, _ models.Actor) (*models.Action, error) {
				return nil, apperrors.ErrInvalidStateTransition
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "POST", "/actions/5/cancel", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestActionHandler_GetAction(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockActionService{
			getActionFn: func(_, actionID uint) (*models.Action, error) {
				return &models.Action{
					Base:       models.Base{ID: actionID},
					ActionType: "contain_host",
					Status:     models.ActionStatusProposed,
				}, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "GET", "/actions/3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		action := result["action"].(map[string]interface{})
		if action["action_type"] != "contain_host" {
			t.Errorf("expected contain_host, got %v", action["action_type"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockActionService{
			getActionFn: func(_, _ uint) (*models.Action, error) {
				return nil, apperrors.ErrActionNotFound
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "GET", "/actions/999", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACTION_NOT_FOUND")
	})
}

func TestActionHandler_ListActions(t *testing.T) {
	t.Run("returns 200 with paginated actions", func(t *testing.T) {
		svc := &mockActionService{
			listActionsFn: func(_ uint, _ pagination.PageRequest, _ services.ActionFilter) (*pagination.PageResponse[models.Action], error) {
				resp := pagination.NewPageResponse([]models.Action{
					{Base: models.Base{ID: 1}, ActionType: "refund"},
					{Base: models.Base{ID: 2}, ActionType: "contain_host"},
				}, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		rec := doRequest(r, "GET", "/actions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		if len(data) != 2 {
			t.Errorf("expected 2 actions, got %d", len(data))
		}
		if result["total_items"].(float64) != 2 {
			t.Errorf("expected total_items=2, got %v", result["total_items"])
		}
	})

	t.Run("passes filter params to service", func(t *testing.T) {
		var capturedFilter services.ActionFilter
		svc := &mockActionService{
			listActionsFn: func(_ uint, _ pagination.PageRequest, filter services.ActionFilter) (*pagination.PageResponse[models.Action], error) {
				capturedFilter = filter
				resp := pagination.NewPageResponse([]models.Action{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewActionHandler(svc)
		r := setupActionRouter(handler)

		doRequest(r, "GET", "/actions?case_id=9&status=PENDING_APPROVAL&action_type=refund", "")

		if capturedFilter.CaseID == nil || *capturedFilter.CaseID != 9 {
			t.Error("expected case_id=9 to be passed")
		}
		if capturedFilter.Status == nil || *capturedFilter.Status != models.ActionStatusPendingApproval {
			t.Error("expected status=PENDING_APPROVAL to be passed")
		}
		if capturedFilter.ActionType != "refund" {
			t.Errorf("expected action_type=refund, got %q", capturedFilter.ActionType)
		}
	})

	t.Run("returns 400 on invalid case_id", func(t *testing.T) {
		handler := NewActionHandler(&mockActionService{})
		r := setupActionRouter(handler)

		rec := doRequest(r, "GET", "/actions?case_id=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_ERROR")
	})
}
