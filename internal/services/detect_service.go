package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	apperrors "actiongate/internal/errors"
	"actiongate/internal/lock"
	"actiongate/internal/logger"
	"actiongate/internal/models"
	"actiongate/internal/pagination"
)

// detectService runs detection batches under a per-tenant distributed
// lock. Manual triggers and the scheduler share the same entry point, so
// at most one batch per tenant is in flight at a time.
type detectService struct {
	db       *gorm.DB
	locker   *lock.Locker
	detector Detector
	audit    AuditServicer
	enabled  bool
	interval time.Duration
}

// NewDetectService creates a new DetectServicer.
func NewDetectService(db *gorm.DB, locker *lock.Locker, detector Detector, audit AuditServicer, enabled bool, interval time.Duration) DetectServicer {
	return &detectService{
		db:       db,
		locker:   locker,
		detector: detector,
		audit:    audit,
		enabled:  enabled,
		interval: interval,
	}
}

// Run executes one detection batch. When another batch holds the tenant
// lock the call returns a SKIPPED result identifying the running batch
// instead of waiting. The lock is released on every exit path, including
// a panicking detector, which lands the run in FAILED.
func (s *detectService) Run(ctx context.Context, tenantID uint, windowFrom, windowTo time.Time, actor models.Actor, channel string) (*DetectRunResult, error) {
	if !windowTo.After(windowFrom) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "window end must be after window start")
	}

	held, err := s.locker.TryAcquire(ctx, lock.DetectBatchKey(tenantID))
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return s.skipResult(tenantID, actor, channel)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer held.Release(ctx)

	run := &models.DetectRun{
		TenantID:   tenantID,
		WindowFrom: windowFrom.UTC(),
		WindowTo:   windowTo.UTC(),
		Status:     models.DetectRunStatusStarted,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts, detectErr := s.detect(ctx, tenantID, windowFrom, windowTo)

	now := time.Now().UTC()
	run.CompletedAt = &now
	if detectErr != nil {
		run.Status = models.DetectRunStatusFailed
		run.ErrorMessage = detectErr.Error()
	} else {
		run.Status = models.DetectRunStatusCompleted
		run.Counts = models.Document{
			"created":    counts.Created,
			"updated":    counts.Updated,
			"suppressed": counts.Suppressed,
		}
	}

	if err := s.db.Save(run).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	outcome := models.AuditOutcomeSuccess
	eventType := "DETECT_RUN_COMPLETED"
	if detectErr != nil {
		outcome = models.AuditOutcomeFailed
		eventType = "DETECT_RUN_FAILED"
	}
	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryDetect,
		EventType:    eventType,
		ResourceType: "detect_run",
		ResourceID:   strconv.FormatUint(uint64(run.ID), 10),
		Actor:        actor,
		Channel:      channel,
		Outcome:      outcome,
		After:        run.Counts,
	})

	return &DetectRunResult{Status: run.Status, Run: run}, nil
}

// detect invokes the detector, converting a panic into a failed run so
// the deferred lock release still happens.
func (s *detectService) detect(ctx context.Context, tenantID uint, from, to time.Time) (counts DetectCounts, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("detector panicked",
				"tenant_id", tenantID,
				"panic", r,
			)
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return s.detector.Detect(ctx, tenantID, from, to)
}

// skipResult builds the SKIPPED response pointing at the batch that holds
// the lock.
func (s *detectService) skipResult(tenantID uint, actor models.Actor, channel string) (*DetectRunResult, error) {
	result := &DetectRunResult{
		Status:     models.DetectRunStatusSkipped,
		SkipReason: "another detect batch is running for this tenant",
	}

	var running models.DetectRun
	err := s.db.Where("tenant_id = ? AND status = ?", tenantID, models.DetectRunStatusStarted).
		Order("started_at DESC").First(&running).Error
	switch {
	case err == nil:
		result.RunningRunID = &running.ID
		result.RunningSince = &running.StartedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(tenantID, AuditEntry{
		Category:     models.AuditCategoryDetect,
		EventType:    "DETECT_RUN_SKIPPED",
		ResourceType: "detect_run",
		Actor:        actor,
		Channel:      channel,
		Outcome:      models.AuditOutcomeSuccess,
		After:        models.Document{"skip_reason": result.SkipReason},
	})

	return result, nil
}

// ListRuns retrieves a paginated list of detect runs for a tenant, newest
// first.
func (s *detectService) ListRuns(tenantID uint, page pagination.PageRequest, filter DetectRunFilter) (*pagination.PageResponse[models.DetectRun], error) {
	page.Defaults()

	base := s.db.Model(&models.DetectRun{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		base = base.Where("started_at >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("started_at < ?", *filter.To)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var runs []models.DetectRun
	if err := base.Order("started_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&runs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(runs, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRun retrieves a detect run by ID for a tenant.
func (s *detectService) GetRun(tenantID, runID uint) (*models.DetectRun, error) {
	var run models.DetectRun
	if err := s.db.Where("id = ? AND tenant_id = ?", runID, tenantID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDetectRunNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &run, nil
}

// GetSchedulerStatus reports the scheduler configuration and the most
// recent run outcomes for a tenant.
func (s *detectService) GetSchedulerStatus(tenantID uint) (*SchedulerStatus, error) {
	status := &SchedulerStatus{
		Enabled:         s.enabled,
		IntervalMinutes: int(s.interval / time.Minute),
	}

	var last models.DetectRun
	err := s.db.Where("tenant_id = ?", tenantID).Order("started_at DESC, id DESC").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status, nil
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	status.LastRunID = &last.ID
	if last.Status == models.DetectRunStatusStarted {
		status.Running = true
		status.RunningRunID = &last.ID
		status.RunningSince = &last.StartedAt
	}
	if s.enabled {
		next := last.StartedAt.Add(s.interval)
		status.NextPlannedAt = &next
	}

	var success models.DetectRun
	if err := s.db.Where("tenant_id = ? AND status = ?", tenantID, models.DetectRunStatusCompleted).
		Order("completed_at DESC").First(&success).Error; err == nil {
		status.LastSuccessAt = success.CompletedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var fail models.DetectRun
	if err := s.db.Where("tenant_id = ? AND status = ?", tenantID, models.DetectRunStatusFailed).
		Order("completed_at DESC").First(&fail).Error; err == nil {
		status.LastFailAt = fail.CompletedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return status, nil
}
