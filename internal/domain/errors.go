package domain

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient role for this operation")
	ErrNotFound        = errors.New("record not found")
	ErrInvalidState    = errors.New("entry is no longer pending")
	ErrInvalidRange    = errors.New("end date is before start date")
	ErrConflict        = errors.New("record already exists")
	ErrEditConflict    = errors.New("record was modified by another request, please retry")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level detail of a rejected submission.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Stable error codes returned to clients.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidState   = "INVALID_STATE"
	CodeInvalidRange   = "INVALID_RANGE"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorCode classifies err into one of the stable codes.
func ErrorCode(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return CodeValidation
	case errors.Is(err, ErrUnauthenticated):
		return CodeAuthentication
	case errors.Is(err, ErrForbidden):
		return CodeAuthorization
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, ErrConflict), errors.Is(err, ErrEditConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}
