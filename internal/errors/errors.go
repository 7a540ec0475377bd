package errors

import (
	stderrors "errors"
	"fmt"

	"estimateml/domain/core"
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

// Wrap wraps an error with additional context. Domain sentinels are mapped to their codes.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    codeFor(err),
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

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrModelUnavailable):
		return CodeModelUnavailable
	case stderrors.Is(err, core.ErrNoData):
		return CodeNoData
	case core.IsInputError(err):
		return CodeInvalidInput
	default:
		return CodeInternalError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeNoData           = "NO_DATA"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeTrainingFailed   = "TRAINING_FAILED"
	CodeStorageError     = "STORAGE_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ModelUnavailable(model string, cause error) *AppError {
	return &AppError{
		Code:    CodeModelUnavailable,
		Message: fmt.Sprintf("%s is unavailable", model),
		Cause:   cause,
	}
}

func NoData(message string) *AppError {
	return &AppError{Code: CodeNoData, Message: message, Cause: core.ErrNoData}
}

func TrainingFailed(model string, cause error) *AppError {
	return &AppError{
		Code:    CodeTrainingFailed,
		Message: fmt.Sprintf("training %s failed", model),
		Cause:   cause,
	}
}

func StorageError(op string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: fmt.Sprintf("storage %s failed", op),
		Cause:   cause,
	}
}
