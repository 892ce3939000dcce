// Package portalerr classifies portal errors so callers can decide on
// retry, re-authentication, or surfacing to the user without string
// matching. The same classification travels over HTTP as a status code
// plus a machine-readable error code.
package portalerr

import (
	"errors"
	"net/http"
)

// Kind is the coarse error classification.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindTransient
	KindInternal
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
	case KindTransient:
		return "transient"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Machine-readable error codes carried alongside the kind.
const (
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInvalidRefreshToken = "invalid_refresh_token"
	CodeUnauthorized        = "unauthorized"
	CodePendingApproval     = "pending_approval"
	CodeForbidden           = "forbidden"
	CodeWeakPassword        = "weak_password"
	CodeAlreadyExists       = "already_exists"
	CodeNotFound            = "not_found"
	CodeInvalidResetCode    = "invalid_reset_code"
)

// Error is a classified portal error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error with a message.
func New(kind Kind, code, message string) error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap classifies an existing error, preserving it for errors.Is/As.
func Wrap(kind Kind, code string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf returns the machine-readable code of err, or "" when absent.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps a classified error to the status code it travels as.
func HTTPStatus(err error) int {
	switch KindOf(err) {
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
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindFromStatus recovers the kind from an HTTP status code. Statuses
// outside the mapped set degrade to KindTransient for 5xx and
// KindUnknown otherwise.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	}
	if status >= 500 {
		return KindTransient
	}
	return KindUnknown
}
