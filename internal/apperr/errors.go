// Package apperr defines the error taxonomy shared by the storage, service and
// HTTP layers.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation  Code = "validation"
	CodeNotFound    Code = "not_found"
	CodeConflict    Code = "conflict"
	CodeForeignKey  Code = "foreign_key"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal"
)

// AppError is a categorized error. Field is set for validation failures and
// names the first input field that broke a rule.
type AppError struct {
	Code    Code
	Message string
	Field   string
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

func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func Validation(field, message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Field: field}
}

func ForeignKey(message string, cause error) *AppError {
	return &AppError{Code: CodeForeignKey, Message: message, Cause: cause}
}

// Wrap attaches a code and message to err. It returns nil for a nil err.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool   { return CodeOf(err) == CodeNotFound }
func IsConflict(err error) bool   { return CodeOf(err) == CodeConflict }
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }
func IsForeignKey(err error) bool { return CodeOf(err) == CodeForeignKey }

// Message returns the user-facing message of the outermost AppError, or the
// plain error text.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
