package errors

import (
	stderrors "errors"
	"fmt"

	"surveytab/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// As returns the outermost AppError in the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeEmptyJoin       = "EMPTY_JOIN"
	CodeEmptyDataset    = "EMPTY_DATASET"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func EmptyJoin(message string, cause error) *AppError {
	return &AppError{Code: CodeEmptyJoin, Message: message, Cause: cause}
}

func EmptyDataset(message string) *AppError {
	return &AppError{Code: CodeEmptyDataset, Message: message, Cause: core.ErrEmptyDataset}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

// FromDomain classifies a domain sentinel into an AppError. Errors that are
// already AppErrors pass through unchanged.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case core.IsValidationError(err):
		return &AppError{Code: CodeValidationError, Message: err.Error(), Cause: err}
	case core.IsEmptyJoinError(err):
		return EmptyJoin("No overlapping data for the selected fields", err)
	case stderrors.Is(err, core.ErrEmptyDataset):
		return EmptyDataset("Dataset is empty")
	case core.IsUpstreamError(err):
		return ExternalServiceError("dataset", err)
	default:
		return &AppError{Code: CodeInternalError, Message: "internal error", Cause: err}
	}
}
