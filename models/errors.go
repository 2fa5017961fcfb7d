package models

import "errors"

// Error kinds surfaced in the structured error body.
const (
	ErrKindScopeViolation = "scope_violation"
	ErrKindValidation     = "validation"
	ErrKindNotFound       = "not_found"
	ErrKindInternal       = "internal"
)

// ScopeViolationError means the requested narrowing is outside the
// requester's permitted geographic territory. Never retried, never
// silently replaced with the requester's own scope.
type ScopeViolationError struct {
	Message string
}

func (e *ScopeViolationError) Error() string {
	return e.Message
}

// ValidationError means the request carried malformed or unsupported
// parameter values. Rejected before any store access.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrSubmissionNotFound is returned when a penalty payment references a
// submission id that does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAccessCodeMismatch is returned when the access code supplied with a
// penalty payment does not match the submission's recorded one.
var ErrAccessCodeMismatch = errors.New("access code does not match")

// ErrorResponse is the structured error body returned to callers. The
// underlying store error is never exposed.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
