package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"gopower/domain/core"
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

// Wrap wraps an error with additional context. Domain errors keep their code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
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

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the outermost AppError code, else the code of a recognized
// domain error, else INTERNAL_ERROR. Nil has no code.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return FromDomain(err)
}

// FromDomain maps domain sentinels to error codes
func FromDomain(err error) string {
	switch {
	case stderrors.Is(err, core.ErrInvalidParameters):
		return CodeInvalidParameters
	case stderrors.Is(err, core.ErrInsufficientPermutations):
		return CodeInsufficientPermutations
	case stderrors.Is(err, core.ErrInvalidRequest):
		return CodeInvalidInput
	case stderrors.Is(err, core.ErrDegenerateSample):
		return CodeDegenerateSample
	case core.IsDeterminismError(err):
		return CodeReplayMismatch
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeInternalError
	}
}

// HTTPStatus maps an error's code to a response status
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidParameters, CodeInsufficientPermutations, CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeDegenerateSample:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeReplayMismatch:
		return http.StatusConflict
	case CodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid            = "CONFIG_INVALID"
	CodeValidationError          = "VALIDATION_ERROR"
	CodeNotFound                 = "NOT_FOUND"
	CodeInternalError            = "INTERNAL_ERROR"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInvalidParameters        = "INVALID_PARAMETERS"
	CodeInsufficientPermutations = "INSUFFICIENT_PERMUTATIONS"
	CodeDegenerateSample         = "DEGENERATE_SAMPLE"
	CodeCancelled                = "CANCELLED"
	CodeReplayMismatch           = "REPLAY_MISMATCH"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
