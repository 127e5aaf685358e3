// Package apperr holds the error kinds shared by the status and identity
// packages and the mapping of those kinds onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrInvalidInput is returned for structurally invalid caller input. It is
	// always surfaced to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDateFormat is returned when a birth date does not parse to a
	// calendar date. It matches ErrInvalidInput under errors.Is.
	ErrInvalidDateFormat = fmt.Errorf("%w: invalid date format", ErrInvalidInput)

	// ErrProvenanceUnavailable marks a provenance read that failed or timed out.
	// It is logged and absorbed, never returned from a status resolution.
	ErrProvenanceUnavailable = errors.New("provenance unavailable")

	// ErrConfigNotFound is returned when a partner id or key does not resolve
	// to a partner configuration.
	ErrConfigNotFound = errors.New("partner config not found")
)

// Error carries an HTTP status and a stable machine-readable code alongside
// the underlying error.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Invalid wraps a validation message so that it matches ErrInvalidInput.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Classify maps an error onto the Error shape used by HTTP handlers.
func Classify(err error) *Error {
	var appErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrInvalidDateFormat):
		return New(http.StatusBadRequest, "INVALID_DATE_FORMAT", err)
	case errors.Is(err, ErrInvalidInput):
		return New(http.StatusBadRequest, "INVALID_INPUT", err)
	case errors.Is(err, ErrConfigNotFound):
		return New(http.StatusNotFound, "CONFIG_NOT_FOUND", err)
	default:
		return New(http.StatusInternalServerError, "INTERNAL", err)
	}
}

// HTTP converts err into an echo error whose body carries the stable code.
// Internal errors are not echoed back to the caller but stay reachable
// through errors.Is / errors.As.
func HTTP(err error) *echo.HTTPError {
	ae := Classify(err)
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError {
		msg = http.StatusText(ae.Status)
	}
	return echo.NewHTTPError(ae.Status, map[string]string{"code": ae.Code, "message": msg}).SetInternal(err)
}
