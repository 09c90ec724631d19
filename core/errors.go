package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a shortcut for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{
		Err:    errors.New(msg),
		Fields: []FieldError{{Field: field, Error: msg}},
	}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// Kind classifies the failures reported by the services.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvariant
	KindNotFound
	KindInUse
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindInvariant:
		return "InvariantViolation"
	case KindNotFound:
		return "NotFound"
	case KindInUse:
		return "InUse"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Error is a domain failure with a stable code, e.g. "BudgetOverrun".
// Services return package level *Error values, wrapped with context.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func NewError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func (e *Error) Error() string {
	return e.Msg
}

// KindOf returns the Kind of err, looking through any wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch cause := errors.Cause(err).(type) {
	case *Error:
		return cause.Kind
	case *ValidationError, ValidationError, validator.ValidationErrors:
		return KindValidation
	}
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return KindValidation
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}
	return KindUnknown
}

// CodeOf returns the stable code of a domain error, or "" for any other error.
func CodeOf(err error) string {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return ""
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
