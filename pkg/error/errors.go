package error

import (
	"errors"
	"net/http"

	"github.com/bimcheck/bimcheck/internal/domain"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: "VALIDATION_FAILED", Message: "Bad request", Status: http.StatusBadRequest}
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Unauthorized", Status: http.StatusUnauthorized}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "Internal server error", Status: http.StatusInternalServerError}
)

func NewValidationFailed(message string) *AppError {
	return &AppError{Code: "VALIDATION_FAILED", Message: message, Status: http.StatusBadRequest}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Status: http.StatusUnauthorized}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound}
}

func NewPreconditionFailed(message string) *AppError {
	return &AppError{Code: "PRECONDITION_FAILED", Message: message, Status: http.StatusUnprocessableEntity}
}

func NewInternalServer(message string) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError}
}

// MapError translates domain errors into transport-facing AppErrors. Guard
// violations keep their human-readable reason so the caller can surface an
// actionable message, not just "operation failed".
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case domain.ErrKindNotFound:
			return NewNotFound(domainErr.Message)
		case domain.ErrKindPreconditionFailed:
			return NewPreconditionFailed(domainErr.Message)
		case domain.ErrKindValidationFailed:
			return NewValidationFailed(domainErr.Message)
		case domain.ErrKindUnauthorized:
			return NewUnauthorized(domainErr.Message)
		}
	}

	return NewInternalServer("An unexpected error occurred")
}
