package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type AppError struct {
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

// Infrastructure errors. These never reach clients verbatim.
type ConfigurationError struct{ AppError }
type NetworkError struct{ AppError }
type DataSourceError struct{ AppError }
type DatabaseError struct{ AppError }

// Domain errors. Their message is safe to show to the caller.
type ValidationError struct {
	AppError
	Fields []FieldError
}
type NotFoundError struct{ AppError }
type PreconditionFailedError struct{ AppError }
type ConflictError struct{ AppError }
type UnauthorizedError struct{ AppError }

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewNotFound(msg string) error {
	return &NotFoundError{AppError{Message: msg}}
}

func NewPreconditionFailed(msg string) error {
	return &PreconditionFailedError{AppError{Message: msg}}
}

func NewConflict(msg string) error {
	return &ConflictError{AppError{Message: msg}}
}

func NewUnauthorized(msg string, cause error) error {
	return &UnauthorizedError{AppError{Message: msg, Cause: cause}}
}

func NewValidation(msg string, fields ...FieldError) error {
	return &ValidationError{AppError: AppError{Message: msg}, Fields: fields}
}

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{AppError{Message: msg, Cause: cause}}
}

func NewDataSourceError(msg string, cause error) error {
	return &DataSourceError{AppError{Message: msg, Cause: cause}}
}

func NewDatabaseError(msg string, cause error) error {
	return &DatabaseError{AppError{Message: msg, Cause: cause}}
}

func NewConfigurationError(msg string) error {
	return &ConfigurationError{AppError{Message: msg}}
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// HTTPStatus maps an error to the status code the API layer should answer with.
func HTTPStatus(err error) int {
	var (
		notFound     *NotFoundError
		precondition *PreconditionFailedError
		conflict     *ConflictError
		unauthorized *UnauthorizedError
		validation   *ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &precondition), errors.As(err, &conflict), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err. Internal errors
// are masked when production is true.
func PublicMessage(err error, production bool) string {
	if HTTPStatus(err) < http.StatusInternalServerError {
		return domainMessage(err)
	}
	if production {
		return "Internal server error"
	}
	return err.Error()
}

func domainMessage(err error) string {
	var (
		notFound     *NotFoundError
		precondition *PreconditionFailedError
		conflict     *ConflictError
		unauthorized *UnauthorizedError
		validation   *ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return notFound.Message
	case errors.As(err, &precondition):
		return precondition.Message
	case errors.As(err, &conflict):
		return conflict.Message
	case errors.As(err, &unauthorized):
		return unauthorized.Message
	case errors.As(err, &validation):
		return validation.Message
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, sleeping baseDelay*2^n between
// tries. Errors for which retryable returns false stop the loop immediately.
// onRetry, when non-nil, is called before each sleep.
func RetryWithBackoff(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	retryable func(error) bool,
	onRetry func(attempt int, err error, delay time.Duration),
	fn func() error,
) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == attempts-1 || (retryable != nil && !retryable(err)) {
			break
		}

		delay := baseDelay * (1 << attempt)
		if onRetry != nil {
			onRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
