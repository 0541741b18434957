package models

// GuardrailSeverity controls what a matching guardrail does to the action.
type GuardrailSeverity string

const (
	GuardrailSeverityBlock GuardrailSeverity = "BLOCK"
	GuardrailSeverityWarn  GuardrailSeverity = "WARN"
)

// Guardrail is a configurable boolean rule evaluated against an action
// payload. The rule document is a condition tree parsed by the policy
// package; a matching BLOCK guardrail rejects the action outright, a
// matching WARN guardrail routes it to approval.
type Guardrail struct {
	Base
	TenantID uint              `gorm:"not null;index" json:"tenant_id"`
	Name     string            `gorm:"not null" json:"name"`
	Scope    string            `json:"scope,omitempty"`
	Rule     Document          `gorm:"type:jsonb;not null" json:"rule"`
	Severity GuardrailSeverity `gorm:"not null;default:BLOCK" json:"severity"`
	Enabled  bool              `gorm:"not null;default:true" json:"enabled"`
}
