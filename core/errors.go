package core

import "github.com/pkg/errors"

var (
	// ErrUnauthenticated is returned when the session or the upstream platform credential is missing or rejected.
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNotFound        = errors.New("not found")
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

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
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

func IsUnauthenticated(err error) bool {
	return errors.Cause(err) == ErrUnauthenticated
}
