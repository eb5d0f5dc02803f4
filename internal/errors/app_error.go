package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of the transport
type Kind string

const (
	KindUnauthorized              Kind = "Unauthorized"
	KindForbidden                 Kind = "Forbidden"
	KindNotFound                  Kind = "NotFound"
	KindInvalidArgument           Kind = "InvalidArgument"
	KindConflict                  Kind = "Conflict"
	KindPaymentVerificationFailed Kind = "PaymentVerificationFailed"
	KindUnavailable               Kind = "Unavailable"
	KindInternal                  Kind = "Internal"
)

// AppError carries a kind, a machine-readable code and a message that is safe to show to callers.
// Err is the underlying cause and is never rendered.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code so wrapped sentinels still compare equal
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// New creates an AppError without cause
func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a sentinel, keeping its kind, code and message
func Wrap(sentinel *AppError, cause error) *AppError {
	return &AppError{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, Err: cause}
}

// Unavailable wraps a store or provider failure
func Unavailable(message string, cause error) *AppError {
	return &AppError{Kind: KindUnavailable, Code: InternalDatabaseError, Message: message, Err: cause}
}

// InvalidArgument builds an ad-hoc validation failure
func InvalidArgument(code, message string) *AppError {
	return New(KindInvalidArgument, code, message)
}

// As extracts the AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind onto its response status
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument, KindPaymentVerificationFailed:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
