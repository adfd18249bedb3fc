package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrorCode identifies an entry in the fixed error catalog.
type ErrorCode string

const (
	// CodeValidation: bad input. Not retryable.
	CodeValidation ErrorCode = "validation"

	// CodeProviderTimeout: an external provider exceeded its wall-clock
	// budget. Retryable by the caller; never auto-retried internally.
	CodeProviderTimeout ErrorCode = "provider_timeout"

	// CodeProviderUnavailable: transient provider failure. Retried
	// internally with backoff, then surfaced as retryable.
	CodeProviderUnavailable ErrorCode = "provider_unavailable"

	// CodeGuardianBlocked: content blocked by the Guardian. Terminal;
	// the user must revise the content.
	CodeGuardianBlocked ErrorCode = "guardian_blocked"

	// CodeNotFound: session or user absent.
	CodeNotFound ErrorCode = "not_found"

	// CodeInternal: unexpected fault. Logged with full context; the
	// caller sees a generic message.
	CodeInternal ErrorCode = "internal"
)

// Error is the structured error surfaced to callers. Every instance
// carries a correlation ID so a surfaced failure can be tied back to
// log lines.
type Error struct {
	Code          ErrorCode `json:"code"`
	HTTPStatus    int       `json:"http_status"`
	Retryable     bool      `json:"retryable"`
	Detail        string    `json:"detail"`
	CorrelationID string    `json:"correlation_id"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, status int, retryable bool, detail string, cause error) *Error {
	return &Error{
		Code:          code,
		HTTPStatus:    status,
		Retryable:     retryable,
		Detail:        detail,
		CorrelationID: uuid.New().String(),
		cause:         cause,
	}
}

// ValidationError reports bad caller input.
func ValidationError(detail string) *Error {
	return newError(CodeValidation, http.StatusBadRequest, false, detail, nil)
}

// TimeoutError reports a provider call that exceeded its budget.
func TimeoutError(detail string, cause error) *Error {
	return newError(CodeProviderTimeout, http.StatusGatewayTimeout, true, detail, cause)
}

// UnavailableError reports a transient provider failure.
func UnavailableError(detail string, cause error) *Error {
	return newError(CodeProviderUnavailable, http.StatusServiceUnavailable, true, detail, cause)
}

// BlockedError reports content blocked by the Guardian.
func BlockedError(detail string) *Error {
	return newError(CodeGuardianBlocked, http.StatusUnprocessableEntity, false, detail, nil)
}

// NotFoundError reports an absent session or user.
func NotFoundError(detail string) *Error {
	return newError(CodeNotFound, http.StatusNotFound, false, detail, nil)
}

// InternalError reports an unexpected fault. The detail shown to
// callers stays generic; the cause is preserved for logging.
func InternalError(cause error) *Error {
	return newError(CodeInternal, http.StatusInternalServerError, false, "internal error", cause)
}

// AsError extracts a catalog *Error from err, converting unknown errors
// to an internal fault so every surfaced error has a code and a
// correlation ID.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InternalError(err)
}

// CodeOf returns the catalog code of err, or CodeInternal for errors
// outside the catalog.
func CodeOf(err error) ErrorCode {
	return AsError(err).Code
}
