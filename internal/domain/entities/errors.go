package entities

import (
	"errors"
	"strings"
)

// Sentinel errors shared by services, stores and transports.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyExists     = errors.New("already exists")

	// ErrConflict reports a write lost to a concurrent change of the same record.
	ErrConflict = errors.New("concurrent modification")

	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")

	// Field-level validation kinds. A *ValidationError matches each kind it contains.
	ErrUnknownField         = errors.New("unknown field")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidValue         = errors.New("invalid value")
)

// FieldError is a single offending field within a ValidationError.
type FieldError struct {
	Field   string `json:"field"`
	Kind    error  `json:"-"`
	Message string `json:"message"`
}

// Code returns the wire code for the error kind.
func (e FieldError) Code() string {
	switch e.Kind {
	case ErrUnknownField:
		return "UNKNOWN_FIELD"
	case ErrTypeMismatch:
		return "TYPE_MISMATCH"
	case ErrMissingRequiredField:
		return "MISSING_REQUIRED_FIELD"
	default:
		return "INVALID_VALUE"
	}
}

// ValidationError collects every offending field of one write.
type ValidationError struct {
	Fields []FieldError
}

// Add records a field failure.
func (e *ValidationError) Add(field string, kind error, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Kind: kind, Message: message})
}

// Merge appends the fields of another validation error.
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Fields = append(e.Fields, other.Fields...)
	}
}

// Empty reports whether no failures were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when it holds no failures.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes ErrValidation and each distinct field kind to errors.Is.
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrValidation}
	seen := make(map[error]bool, len(e.Fields))
	for _, f := range e.Fields {
		if f.Kind != nil && !seen[f.Kind] {
			seen[f.Kind] = true
			errs = append(errs, f.Kind)
		}
	}
	return errs
}
