package models

import "github.com/shopspring/decimal"

// BreachAction is what a threshold breach does to the workflow decision.
type BreachAction string

const (
	BreachActionNoop            BreachAction = "NOOP"
	BreachActionFlagForReview   BreachAction = "FLAG_FOR_REVIEW"
	BreachActionRequireApproval BreachAction = "REQUIRE_APPROVAL"
)

// BreachSeverity grades a threshold breach.
type BreachSeverity string

const (
	BreachSeverityLow    BreachSeverity = "LOW"
	BreachSeverityMedium BreachSeverity = "MEDIUM"
	BreachSeverityHigh   BreachSeverity = "HIGH"
)

// ThresholdDimension scopes a threshold to one payload dimension.
type ThresholdDimension string

const (
	DimensionAccount    ThresholdDimension = "account"
	DimensionCostCenter ThresholdDimension = "cost_center"
	DimensionCategory   ThresholdDimension = "category"
)

// Threshold is a tenant/currency/dimension-scoped monetary limit. A missing
// row for a dimension/currency combination means no limit is configured.
type Threshold struct {
	Base
	TenantID         uint               `gorm:"not null;uniqueIndex:idx_thresholds_scope" json:"tenant_id"`
	ProfileID        uint               `gorm:"not null;uniqueIndex:idx_thresholds_scope" json:"profile_id"`
	Dimension        ThresholdDimension `gorm:"not null;uniqueIndex:idx_thresholds_scope" json:"dimension"`
	DimensionKey     string             `gorm:"not null;uniqueIndex:idx_thresholds_scope" json:"dimension_key"`
	Currency         string             `gorm:"not null;size:3;uniqueIndex:idx_thresholds_scope" json:"currency"`
	ThresholdAmount  decimal.Decimal    `gorm:"type:decimal(18,2);not null" json:"threshold_amount"`
	RequireEvidence  bool               `gorm:"not null;default:false" json:"require_evidence"`
	SeverityOnBreach BreachSeverity     `gorm:"not null;default:MEDIUM" json:"severity_on_breach"`
	ActionOnBreach   BreachAction       `gorm:"not null;default:FLAG_FOR_REVIEW" json:"action_on_breach"`
}
