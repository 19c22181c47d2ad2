// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business error so handlers can map it to a response
// and callers can decide whether a retry makes sense.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInvalidOperation  Kind = "invalid_operation"
	KindForbidden         Kind = "forbidden"
	KindTransient         Kind = "transient"
)

// Error is the structured domain error returned by all services.
type Error struct {
	Kind    Kind   `json:"kind"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`

	// Populated for insufficient stock so callers can adjust the request.
	Requested int `json:"requested,omitempty"`
	Available int `json:"available,omitempty"`

	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInsufficientStock:
		return http.StatusConflict
	case KindInvalidOperation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NotFound reports that a referenced entity does not exist.
func NotFound(entity string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("%s not found", entity),
	}
}

// Conflict reports a uniqueness violation on the given entity.
func Conflict(entity, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Entity:  entity,
		Message: message,
	}
}

// InsufficientStock reports that a debit or reservation exceeds what is on hand.
func InsufficientStock(requested, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Entity:    "stock_record",
		Message:   fmt.Sprintf("insufficient stock: requested %d, available %d", requested, available),
		Requested: requested,
		Available: available,
	}
}

// InvalidOperation reports a violated state-machine or invariant rule.
func InvalidOperation(message string) *Error {
	return &Error{
		Kind:    KindInvalidOperation,
		Message: message,
	}
}

// Forbidden reports a failed capability check.
func Forbidden(message string) *Error {
	return &Error{
		Kind:    KindForbidden,
		Message: message,
	}
}

// Transient wraps a storage-level failure the caller may retry as a whole.
func Transient(op string, err error) *Error {
	return &Error{
		Kind:    KindTransient,
		Message: fmt.Sprintf("%s aborted, retry the operation", op),
		Err:     err,
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool          { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool          { return IsKind(err, KindConflict) }
func IsInsufficientStock(err error) bool { return IsKind(err, KindInsufficientStock) }
func IsInvalidOperation(err error) bool  { return IsKind(err, KindInvalidOperation) }

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
