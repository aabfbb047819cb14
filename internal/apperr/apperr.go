// Package apperr classifies failures into the handful of kinds the HTTP layer
// knows how to render.
package apperr

import (
	"errors"
	"net/http"
)

// Kind enumerates error categories surfaced to API clients.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a classified failure with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports missing or malformed input.
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// Unauthorized reports a missing, invalid or expired credential.
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden reports a valid caller lacking the required role.
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound reports a referenced record that does not exist.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports a write that lost against concurrent state.
func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// Upstream wraps a data store failure. The store's own message is kept for the client.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindUpstream, Err: err}
}

// KindOf returns the kind of err, defaulting to KindUpstream for unclassified errors.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUpstream
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message extracts the text shown to API clients.
//
// Classified errors use their own message. Anything else (including upstream
// failures) prefers a PublicMessage from the wrapped chain, then the raw error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) && classified.Message != "" {
		return classified.Message
	}
	var public interface{ PublicMessage() string }
	if errors.As(err, &public) {
		if msg := public.PublicMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
