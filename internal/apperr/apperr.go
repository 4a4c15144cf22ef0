// Package apperr defines the error taxonomy shared by the service layer. Every error
// leaving a service carries one Kind so the HTTP boundary can pick a status code
// without inspecting messages.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind to the status code returned to clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// Authentication reports bad credentials or an invalid, expired or reused token.
func Authentication(message string) error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Authorization reports a valid session acting on an aggregate it does not own.
func Authorization(message string) error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a violated uniqueness or state constraint.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Dependency wraps a storage or collaborator failure.
func Dependency(message string, err error) error {
	return &Error{Kind: KindDependency, Message: message, Err: err}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// MessageOf returns the client-safe message for err. Unclassified errors never leak
// their text.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
