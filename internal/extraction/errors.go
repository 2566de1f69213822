package extraction

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures into the closed set callers
// switch on.
type Kind string

const (
	// KindBackendUnavailable means a required credential or setting is
	// missing; the backend was never called.
	KindBackendUnavailable Kind = "backend_unavailable"
	// KindBackendError means the generation call itself failed.
	KindBackendError Kind = "backend_error"
	// KindMalformedResponse means no JSON object could be recovered
	// from the backend's text.
	KindMalformedResponse Kind = "malformed_response"
)

// Error is a classified extraction failure. Raw carries the original
// backend text for malformed responses so it can be kept for manual
// recovery.
type Error struct {
	Kind    Kind
	Message string
	Raw     string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsKind reports whether err is an extraction Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// RawResponse returns the unparseable backend text attached to err, if
// any.
func RawResponse(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Raw
	}
	return ""
}

func backendUnavailable(message string) *Error {
	return &Error{Kind: KindBackendUnavailable, Message: message}
}

func backendError(message string, cause error) *Error {
	return &Error{Kind: KindBackendError, Message: message, Cause: cause}
}

func malformedResponse(message, raw string, cause error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message, Raw: raw, Cause: cause}
}
