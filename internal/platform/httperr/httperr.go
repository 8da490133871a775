// Package httperr defines the error taxonomy used across the service and
// maps it onto HTTP statuses at the echo boundary. Services return these
// errors; handlers pass them through unchanged.
package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies an error for boundary mapping.
type Kind int

const (
	// Internal is anything unexpected, including database and
	// external-API failures.
	Internal Kind = iota
	// Validation marks a missing or malformed required field.
	Validation
	// NotFound marks a referenced identity that does not exist.
	NotFound
	// Unauthorized marks a missing or invalid credential.
	Unauthorized
	// Forbidden marks a credential that is valid but not allowed here.
	Forbidden
	// InsufficientQuota marks a ledger precondition failure.
	InsufficientQuota
	// Conflict marks a duplicate unique field.
	Conflict
)

// Error carries a kind and a human-readable message. It may wrap a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a taxonomy error.
func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Newf builds a taxonomy error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a taxonomy error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func status(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case InsufficientQuota:
		return http.StatusUnprocessableEntity
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler returns an echo HTTPErrorHandler that maps taxonomy errors
// to statuses and hides internal details from clients. echo.HTTPError
// values produced by binding or routing are passed through as-is.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"

		var he *echo.HTTPError
		var te *Error
		switch {
		case errors.As(err, &te):
			code = status(te.Kind)
			msg = te.Msg
			if te.Kind == Internal {
				msg = "internal server error"
			}
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprintf("%v", he.Message)
		}

		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"message": msg})
	}
}
