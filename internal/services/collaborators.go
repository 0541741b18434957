package services

import (
	"context"
	"time"

	"actiongate/internal/models"
)

// Executor carries out an approved action against the downstream system
// and returns the resulting resource state. The workflow treats its
// failures as an action outcome, not a transport error.
type Executor interface {
	Execute(ctx context.Context, action *models.Action) (models.Document, error)
}

// Detector computes detection results over a time window. Called while
// the per-tenant batch lock is held.
type Detector interface {
	Detect(ctx context.Context, tenantID uint, from, to time.Time) (DetectCounts, error)
}

// RoleResolver resolves the business roles of an actor for role-based
// segregation rules.
type RoleResolver interface {
	Roles(ctx context.Context, tenantID uint, actor models.Actor) ([]string, error)
}

// EvidenceChecker reports whether supporting evidence is attached to an
// action that a threshold breach marked as evidence-requiring.
type EvidenceChecker interface {
	HasEvidence(ctx context.Context, action *models.Action) (bool, error)
}

// NoopExecutor marks actions executed without touching any downstream
// system. Used when no integration is wired.
type NoopExecutor struct{}

func (NoopExecutor) Execute(_ context.Context, action *models.Action) (models.Document, error) {
	after := models.Document{}
	for k, v := range action.Payload {
		after[k] = v
	}
	after["status"] = "applied"
	return after, nil
}

// NoopDetector reports empty detection windows.
type NoopDetector struct{}

func (NoopDetector) Detect(context.Context, uint, time.Time, time.Time) (DetectCounts, error) {
	return DetectCounts{}, nil
}

// StaticRoleResolver resolves roles from an in-memory map keyed by actor
// ID. Actors absent from the map have no roles.
type StaticRoleResolver struct {
	RolesByActor map[uint][]string
}

func (r StaticRoleResolver) Roles(_ context.Context, _ uint, actor models.Actor) ([]string, error) {
	if r.RolesByActor == nil {
		return nil, nil
	}
	return r.RolesByActor[actor.ID], nil
}

// PayloadEvidenceChecker accepts any non-empty "evidenceRefs" list in the
// action payload as evidence.
type PayloadEvidenceChecker struct{}

func (PayloadEvidenceChecker) HasEvidence(_ context.Context, action *models.Action) (bool, error) {
	refs, ok := action.Payload["evidenceRefs"]
	if !ok {
		return false, nil
	}
	list, ok := refs.([]interface{})
	return ok && len(list) > 0, nil
}
