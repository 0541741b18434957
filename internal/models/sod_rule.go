package models

// SoDSeverity controls whether a violated SoD rule blocks the transition
// or is recorded and allowed.
type SoDSeverity string

const (
	SoDSeverityBlock SoDSeverity = "BLOCK"
	SoDSeverityWarn  SoDSeverity = "WARN"
)

// Well-known SoD rule keys. Each tenant profile is seeded with these three.
const (
	SoDRuleNoSelfApprove     = "NO_SELF_APPROVE"
	SoDRuleDualControl       = "DUAL_CONTROL"
	SoDRuleFinanceVsSecurity = "FINANCE_VS_SECURITY"
)

// SoDRule is a segregation-of-duties constraint evaluated at approval time.
// Config carries rule-specific scope settings:
//   - DUAL_CONTROL: requiredApprovals (int, default 2), minAmount, currency
//   - FINANCE_VS_SECURITY: roleSets ([][]string of mutually exclusive roles)
type SoDRule struct {
	Base
	TenantID    uint        `gorm:"not null;uniqueIndex:idx_sod_rules_key" json:"tenant_id"`
	ProfileID   uint        `gorm:"not null;uniqueIndex:idx_sod_rules_key" json:"profile_id"`
	RuleKey     string      `gorm:"not null;size:64;uniqueIndex:idx_sod_rules_key" json:"rule_key"`
	Title       string      `gorm:"not null;size:120" json:"title"`
	Description string      `json:"description,omitempty"`
	Enabled     bool        `gorm:"not null;default:true" json:"enabled"`
	Severity    SoDSeverity `gorm:"not null;default:WARN" json:"severity"`
	Config      Document    `gorm:"type:jsonb" json:"config,omitempty"`
}
