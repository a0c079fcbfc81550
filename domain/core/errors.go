package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Dataset errors
	ErrEmptyDataset = errors.New("dataset is empty")
	ErrEmptyJoin    = errors.New("no overlapping data for the requested fields")

	// Validation errors
	ErrValidation   = errors.New("validation failed")
	ErrUnknownField = fmt.Errorf("%w: unknown field", ErrValidation)
	ErrInvalidMode  = fmt.Errorf("%w: invalid mode", ErrValidation)
	ErrMissingParam = fmt.Errorf("%w: missing parameter", ErrValidation)

	// Upstream errors
	ErrUpstreamFetch = errors.New("dataset fetch failed")
)

// detailedError carries a user-facing message while still matching its sentinel
// through errors.Is.
type detailedError struct {
	kind error
	msg  string
}

func (e *detailedError) Error() string { return e.msg }

func (e *detailedError) Unwrap() error { return e.kind }

// Error constructors with context
func NewUnknownFieldError(kind, name string) error {
	return &detailedError{kind: ErrUnknownField, msg: fmt.Sprintf("Unknown %s '%s'", kind, name)}
}

func NewMissingParamError(param string) error {
	return &detailedError{kind: ErrMissingParam, msg: fmt.Sprintf("%s parameter is required", param)}
}

func NewInvalidModeError(kind, value string) error {
	return &detailedError{kind: ErrInvalidMode, msg: fmt.Sprintf("Unsupported %s '%s'", kind, value)}
}

func NewEmptyJoinError(fields ...string) error {
	return fmt.Errorf("%w: %v", ErrEmptyJoin, fields)
}

func NewUpstreamError(source string, err error) error {
	return fmt.Errorf("%w from %s: %v", ErrUpstreamFetch, source, err)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsEmptyJoinError(err error) bool {
	return errors.Is(err, ErrEmptyJoin)
}

func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamFetch)
}
