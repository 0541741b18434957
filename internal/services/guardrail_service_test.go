package services

import (
	"testing"

	"actiongate/internal/models"
	"actiongate/internal/pagination"
	"actiongate/internal/testutil"
)

func TestCreateGuardrail(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		actor := testutil.TestActor()

		rule := models.Document{"field": "amount", "op": "gt", "value": 1000}
		g, err := svc.CreateGuardrail(1, actor, "large-amounts", "action", rule, models.GuardrailSeverityBlock, true)
		testutil.AssertNoError(t, err)

		if g.ID == 0 {
			t.Fatal("expected non-zero guardrail ID")
		}
		if !g.Enabled {
			t.Error("expected guardrail enabled")
		}

		var events []models.AuditEvent
		if err := db.Where("event_type = ?", "GUARDRAIL_CREATED").Find(&events).Error; err != nil {
			t.Fatalf("failed to query audit events: %v", err)
		}
		if len(events) != 1 {
			t.Errorf("expected 1 audit event, got %d", len(events))
		}
	})

	t.Run("malformed_rule_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))

		rule := models.Document{"op": "between", "field": "amount"}
		_, err := svc.CreateGuardrail(1, testutil.TestActor(), "bad", "action", rule, models.GuardrailSeverityBlock, true)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))

		rule := models.Document{"field": "amount", "op": "gt", "value": 1}
		_, err := svc.CreateGuardrail(1, testutil.TestActor(), "", "action", rule, models.GuardrailSeverityWarn, true)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestUpdateGuardrail(t *testing.T) {
	t.Run("disable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		g := testutil.CreateTestGuardrail(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 10})

		disabled := false
		updated, err := svc.UpdateGuardrail(1, g.ID, testutil.TestActor(), "", "", nil, nil, &disabled)
		testutil.AssertNoError(t, err)
		if updated.Enabled {
			t.Error("expected guardrail disabled")
		}
		if updated.Name != g.Name {
			t.Errorf("expected name unchanged, got %s", updated.Name)
		}
	})

	t.Run("wrong_tenant", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		g := testutil.CreateTestGuardrail(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 10})

		_, err := svc.UpdateGuardrail(2, g.ID, testutil.TestActor(), "renamed", "", nil, nil, nil)
		testutil.AssertAppError(t, err, "GUARDRAIL_NOT_FOUND")
	})
}

func TestDeleteGuardrail(t *testing.T) {
	t.Run("removes_from_evaluation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		g := testutil.CreateTestGuardrail(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 10})

		testutil.AssertNoError(t, svc.DeleteGuardrail(1, g.ID, testutil.TestActor()))

		verdict, err := svc.Evaluate(1, models.Document{"amount": 100})
		testutil.AssertNoError(t, err)
		if len(verdict.Matches) != 0 {
			t.Errorf("expected no matches after delete, got %v", verdict.Matches)
		}

		page, err := svc.ListGuardrails(1, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 0 {
			t.Errorf("expected empty list after delete, got %d", page.TotalItems)
		}
	})
}

func TestEvaluateGuardrails(t *testing.T) {
	t.Run("block_match", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		g := testutil.CreateTestGuardrail(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 1000})

		verdict, err := svc.Evaluate(1, models.Document{"amount": 5000})
		testutil.AssertNoError(t, err)
		if !verdict.Blocked {
			t.Error("expected blocked verdict")
		}
		if len(verdict.Matches) != 1 || verdict.Matches[0].GuardrailID != g.ID {
			t.Errorf("unexpected matches: %v", verdict.Matches)
		}
	})

	t.Run("warn_match_does_not_block", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		testutil.CreateTestGuardrailWithSeverity(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 1000}, models.GuardrailSeverityWarn)

		verdict, err := svc.Evaluate(1, models.Document{"amount": 5000})
		testutil.AssertNoError(t, err)
		if verdict.Blocked {
			t.Error("expected warn match not to block")
		}
		if len(verdict.Matches) != 1 {
			t.Fatalf("expected 1 match, got %d", len(verdict.Matches))
		}
	})

	t.Run("no_match", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		testutil.CreateTestGuardrail(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 1000})

		verdict, err := svc.Evaluate(1, models.Document{"amount": 50})
		testutil.AssertNoError(t, err)
		if verdict.Blocked || len(verdict.Matches) != 0 {
			t.Errorf("expected clean verdict, got %+v", verdict)
		}
	})

	t.Run("unevaluable_rule_fails_closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))

		// Numeric comparison against a non-numeric operand fails at eval
		// time even though the rule parses.
		testutil.CreateTestGuardrailWithSeverity(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": "not-a-number"}, models.GuardrailSeverityWarn)

		verdict, err := svc.Evaluate(1, models.Document{"amount": 50})
		testutil.AssertNoError(t, err)
		if !verdict.Blocked {
			t.Error("expected unevaluable rule to block")
		}
		if len(verdict.Matches) != 1 || verdict.Matches[0].ErrorCode != "GUARDRAIL_EVAL_ERROR" {
			t.Errorf("expected eval error match, got %v", verdict.Matches)
		}
	})

	t.Run("disabled_rules_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGuardrailService(db, NewAuditService(db))
		g := testutil.CreateTestGuardrail(t, db, 1, models.Document{"field": "amount", "op": "gt", "value": 10})

		disabled := false
		_, err := svc.UpdateGuardrail(1, g.ID, testutil.TestActor(), "", "", nil, nil, &disabled)
		testutil.AssertNoError(t, err)

		verdict, err := svc.Evaluate(1, models.Document{"amount": 100})
		testutil.AssertNoError(t, err)
		if len(verdict.Matches) != 0 {
			t.Errorf("expected disabled guardrail to be skipped, got %v", verdict.Matches)
		}
	})
}
