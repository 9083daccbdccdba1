// Package apperr defines the failure kinds every service reports and how
// they surface over HTTP.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation       = errors.New("validation_error")
	ErrUnauthenticated  = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not_found")
	ErrDuplicateAccount = errors.New("duplicate_account")
	ErrInvalidCode      = errors.New("invalid_or_expired_code")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate_limit_exceeded")
)

const CodeInternal = "internal_server_error"

var kinds = []struct {
	err    error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicateAccount, http.StatusBadRequest},
	{ErrInvalidCode, http.StatusBadRequest},
	{ErrConflict, http.StatusConflict},
	{ErrRateLimited, http.StatusTooManyRequests},
}

// Classify returns the HTTP status and machine-readable code for err.
// ok is false for anything that is not one of the known kinds.
func Classify(err error) (status int, code string, ok bool) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, k.err.Error(), true
		}
	}
	return http.StatusInternalServerError, CodeInternal, false
}

// Error pairs a kind with the localized message shown to callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// New returns an error of the given kind carrying a public message.
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// PublicMessage returns the message attached with New, if any.
func PublicMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message, true
	}
	return "", false
}
