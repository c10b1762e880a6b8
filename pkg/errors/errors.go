package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrValidation       = "VALIDATION_ERROR"
	ErrNotFound         = "NOT_FOUND"
	ErrPermissionDenied = "PERMISSION_DENIED"
	ErrStorage          = "STORAGE_ERROR"
	ErrConfigLoad       = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect  = "DATABASE_CONNECT_ERROR"
)

// CodeOf returns the taxonomy code of err, or ErrStorage for anything
// that is not an AppError. Handlers use it to pick an HTTP status.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrStorage
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
