package domain

import "fmt"

// ErrorKind classifies domain errors so the HTTP boundary can map them
// to status codes without string matching.
type ErrorKind string

const (
	ErrKindNotFound           ErrorKind = "NOT_FOUND"
	ErrKindPreconditionFailed ErrorKind = "PRECONDITION_FAILED"
	ErrKindValidationFailed   ErrorKind = "VALIDATION_FAILED"
	ErrKindUnauthorized       ErrorKind = "UNAUTHORIZED"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *DomainError {
	return &DomainError{Kind: ErrKindNotFound, Message: message}
}

func NewPreconditionError(message string) *DomainError {
	return &DomainError{Kind: ErrKindPreconditionFailed, Message: message}
}

func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: ErrKindValidationFailed, Message: message}
}

func NewPreconditionErrorf(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: ErrKindPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

// Common errors
var (
	ErrAuditNotFound      = NewNotFoundError("audit not found")
	ErrItemNotFound       = NewNotFoundError("audit item not found")
	ErrAuditCancelled     = NewPreconditionError("audit already cancelled")
	ErrAuditCompleted     = NewPreconditionError("completed audit cannot be modified")
	ErrItemsNotEditable   = NewPreconditionError("cannot modify items in this state")
	ErrNoChecklistItems   = NewPreconditionError("no checklist configured for this discipline and audit phase")
	ErrInvalidCredentials = &DomainError{Kind: ErrKindUnauthorized, Message: "invalid email or password"}
)
