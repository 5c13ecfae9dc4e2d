// Package errors defines the error kinds surfaced by the Redline auth core.
// Every failure mode of the token lifecycle is a distinct kind so the
// transport layer can map kinds to status codes without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is a stable error code carried by every *Error.
type Kind string

const (
	// KindTokenMalformed marks a structurally invalid token string.
	KindTokenMalformed Kind = "token_malformed"
	// KindSignatureInvalid marks a failed signature verification.
	KindSignatureInvalid Kind = "invalid_signature"
	// KindTokenExpired marks a token whose exp has passed.
	KindTokenExpired Kind = "token_expired"
	// KindPayloadMalformed marks a decoded payload that is not a claims map.
	KindPayloadMalformed Kind = "malformed_payload"
	// KindMissingSecret marks a missing signing secret. Startup-fatal: it is
	// a deployment fault, not a per-request condition.
	KindMissingSecret Kind = "missing_secret_config"
	// KindTokenRevoked marks a token whose jti has an active tombstone.
	KindTokenRevoked Kind = "token_revoked"
	// KindValidation marks rejected input (empty email/nonce, reserved claim).
	KindValidation Kind = "validation_failed"
	// KindDuplicateRevocation marks a second blacklist of the same jti.
	KindDuplicateRevocation Kind = "duplicate_revocation"
	// KindRateLimited marks a denied rate-limit slot.
	KindRateLimited Kind = "rate_limit_exceeded"
	// KindInternal marks persistence and other infrastructure faults.
	KindInternal Kind = "internal_error"
)

// Error is the structured error type used across the service.
type Error struct {
	kind       Kind
	httpStatus int
	message    string
	cause      error
	metadata   map[string]any
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the stable error kind.
func (e *Error) Code() Kind { return e.kind }

// HTTPStatus returns the status code the transport layer should use.
func (e *Error) HTTPStatus() int { return e.httpStatus }

// Unwrap exposes the underlying cause for error-chain inspection.
func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so callers can compare against
// the exported sentinels with the standard errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return e.kind == t.kind
}

// WithCause attaches an underlying error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// WithMetadata attaches a context key/value and returns the receiver.
func (e *Error) WithMetadata(key string, value any) *Error {
	if e.metadata == nil {
		e.metadata = make(map[string]any)
	}
	e.metadata[key] = value
	return e
}

// Metadata returns attached context, or nil.
func (e *Error) Metadata() map[string]any { return e.metadata }

// Sentinels for errors.Is comparisons. Constructors below produce values
// that match these by kind.
var (
	ErrTokenMalformed      = &Error{kind: KindTokenMalformed, httpStatus: http.StatusBadRequest, message: "token is structurally invalid"}
	ErrSignatureInvalid    = &Error{kind: KindSignatureInvalid, httpStatus: http.StatusUnauthorized, message: "token signature verification failed"}
	ErrTokenExpired        = &Error{kind: KindTokenExpired, httpStatus: http.StatusUnauthorized, message: "token has expired"}
	ErrPayloadMalformed    = &Error{kind: KindPayloadMalformed, httpStatus: http.StatusUnauthorized, message: "token payload is not a claims mapping"}
	ErrMissingSecret       = &Error{kind: KindMissingSecret, httpStatus: http.StatusInternalServerError, message: "signing secret is not configured"}
	ErrTokenRevoked        = &Error{kind: KindTokenRevoked, httpStatus: http.StatusUnauthorized, message: "token has been revoked"}
	ErrValidation          = &Error{kind: KindValidation, httpStatus: http.StatusBadRequest, message: "validation failed"}
	ErrDuplicateRevocation = &Error{kind: KindDuplicateRevocation, httpStatus: http.StatusConflict, message: "jti is already blacklisted"}
	ErrRateLimited         = &Error{kind: KindRateLimited, httpStatus: http.StatusTooManyRequests, message: "rate limit exceeded"}
	ErrInternal            = &Error{kind: KindInternal, httpStatus: http.StatusInternalServerError, message: "internal error"}
)

// TokenMalformed creates a token_malformed error with a reason.
func TokenMalformed(reason string) *Error {
	return &Error{kind: KindTokenMalformed, httpStatus: http.StatusBadRequest,
		message: fmt.Sprintf("token is structurally invalid: %s", reason)}
}

// SignatureInvalid creates an invalid_signature error.
func SignatureInvalid() *Error {
	return &Error{kind: KindSignatureInvalid, httpStatus: http.StatusUnauthorized,
		message: "token signature verification failed"}
}

// TokenExpired creates a token_expired error.
func TokenExpired() *Error {
	return &Error{kind: KindTokenExpired, httpStatus: http.StatusUnauthorized,
		message: "token has expired"}
}

// PayloadMalformed creates a malformed_payload error.
func PayloadMalformed() *Error {
	return &Error{kind: KindPayloadMalformed, httpStatus: http.StatusUnauthorized,
		message: "token payload is not a claims mapping"}
}

// MissingSecret creates a missing_secret_config error.
func MissingSecret() *Error {
	return &Error{kind: KindMissingSecret, httpStatus: http.StatusInternalServerError,
		message: "signing secret is not configured"}
}

// TokenRevoked creates a token_revoked error for a jti.
func TokenRevoked(jti string) *Error {
	e := &Error{kind: KindTokenRevoked, httpStatus: http.StatusUnauthorized,
		message: fmt.Sprintf("token %s has been revoked", jti)}
	return e.WithMetadata("jti", jti)
}

// Validation creates a validation_failed error with a reason.
func Validation(reason string) *Error {
	return &Error{kind: KindValidation, httpStatus: http.StatusBadRequest,
		message: fmt.Sprintf("validation failed: %s", reason)}
}

// DuplicateRevocation creates a duplicate_revocation error for a jti.
func DuplicateRevocation(jti string) *Error {
	e := &Error{kind: KindDuplicateRevocation, httpStatus: http.StatusConflict,
		message: fmt.Sprintf("jti %s is already blacklisted", jti)}
	return e.WithMetadata("jti", jti)
}

// RateLimited creates a rate_limit_exceeded error for an action key.
func RateLimited(actionKey string, maxCalls int) *Error {
	e := &Error{kind: KindRateLimited, httpStatus: http.StatusTooManyRequests,
		message: fmt.Sprintf("rate limit exceeded for action %q: %d calls", actionKey, maxCalls)}
	return e.WithMetadata("action_key", actionKey).WithMetadata("max_calls", maxCalls)
}

// Internal creates an internal_error with a message.
func Internal(message string) *Error {
	return &Error{kind: KindInternal, httpStatus: http.StatusInternalServerError, message: message}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// HTTPStatus returns the status code for err, defaulting to 500.
func HTTPStatus(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.httpStatus
	}
	return http.StatusInternalServerError
}
