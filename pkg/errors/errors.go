package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError so callers can branch without parsing messages.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	// KindTransient marks failures of storage, network or mail delivery that may succeed on retry.
	KindTransient Kind = "transient"
	KindInternal  Kind = "internal"
)

// StatusCode maps the kind onto the HTTP status used when rendering it.
func (k Kind) StatusCode() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Kind       Kind         `json:"kind"`
	Fields     []FieldError `json:"fields,omitempty"`
	StatusCode int          `json:"-"`
	Internal   error        `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches AppErrors by code so copies produced by WithInternal still match their sentinel.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Retryable reports whether the failure is transient.
func (e *AppError) Retryable() bool {
	return e != nil && e.Kind == KindTransient
}

// Common errors exposed to the rest of the application.
var (
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "Unauthorized")

	ErrForbidden = New(KindForbidden, "FORBIDDEN", "Insufficient permissions")

	ErrNotFound = New(KindNotFound, "NOT_FOUND", "Resource not found")

	ErrBadRequest = New(KindValidation, "BAD_REQUEST", "Invalid request")

	ErrStorageUnavailable = New(KindTransient, "STORAGE_UNAVAILABLE", "Storage temporarily unavailable")

	ErrInternalServer = New(KindInternal, "INTERNAL_SERVER_ERROR", "Internal server error")

	ErrRateLimit = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, please slow down",
		Kind:       KindTransient,
		StatusCode: http.StatusTooManyRequests,
	}
)

// New builds a new application error of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Kind:       kind,
		StatusCode: kind.StatusCode(),
	}
}

// Wrap turns any error into an internal AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Kind:       KindInternal,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// Storage wraps a database failure as a transient error.
func Storage(err error, op string) *AppError {
	return ErrStorageUnavailable.WithInternal(fmt.Errorf("%s: %w", op, err))
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return FromError(err).Kind
}

// IsRetryable reports whether err is a transient AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable()
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return New(KindValidation, ErrBadRequest.Code, message)
}

// NewValidation builds a validation error carrying field-level details.
func NewValidation(message string, fields []FieldError) *AppError {
	err := New(KindValidation, "VALIDATION_FAILED", message)
	err.Fields = fields
	return err
}
