// Package errors provides custom error types for the actiongate API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Workflow errors.
var (
	ErrActionNotFound         = &AppError{Code: "ACTION_NOT_FOUND", Message: "Action not found", StatusCode: http.StatusNotFound}
	ErrInvalidStateTransition = &AppError{Code: "INVALID_STATE_TRANSITION", Message: "Transition not permitted from the current action status", StatusCode: http.StatusConflict}
	ErrPolicyViolation        = &AppError{Code: "POLICY_VIOLATION", Message: "Action blocked by policy", StatusCode: http.StatusUnprocessableEntity}
	ErrDuplicateProposal      = &AppError{Code: "DUPLICATE_PROPOSAL", Message: "An open proposal with the same action type already exists for this case", StatusCode: http.StatusConflict}
)

// Policy configuration errors.
var (
	ErrGuardrailNotFound = &AppError{Code: "GUARDRAIL_NOT_FOUND", Message: "Guardrail not found", StatusCode: http.StatusNotFound}
	ErrThresholdNotFound = &AppError{Code: "THRESHOLD_NOT_FOUND", Message: "Threshold not found", StatusCode: http.StatusNotFound}
	ErrSodRuleNotFound   = &AppError{Code: "SOD_RULE_NOT_FOUND", Message: "SoD rule not found", StatusCode: http.StatusNotFound}
)

// Detect batch errors.
var (
	ErrDetectRunNotFound = &AppError{Code: "DETECT_RUN_NOT_FOUND", Message: "Detect run not found", StatusCode: http.StatusNotFound}
)

// Audit errors.
var (
	ErrAuditEventNotFound = &AppError{Code: "AUDIT_EVENT_NOT_FOUND", Message: "Audit event not found", StatusCode: http.StatusNotFound}
)
