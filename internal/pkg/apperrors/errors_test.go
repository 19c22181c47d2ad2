package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("product"), http.StatusNotFound},
		{Conflict("stock_record", "duplicate"), http.StatusConflict},
		{InsufficientStock(6, 4), http.StatusConflict},
		{InvalidOperation("bad move"), http.StatusBadRequest},
		{Forbidden("nope"), http.StatusForbidden},
		{Transient("commit", errors.New("deadlock")), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestKindPredicatesThroughWrapping(t *testing.T) {
	base := InsufficientStock(6, 4)
	wrapped := fmt.Errorf("creating sale: %w", base)

	if !IsInsufficientStock(wrapped) {
		t.Error("predicate must see through fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("wrong predicate must not match")
	}

	appErr, ok := AsError(wrapped)
	if !ok {
		t.Fatal("AsError must unwrap")
	}
	if appErr.Requested != 6 || appErr.Available != 4 {
		t.Errorf("expected 6/4, got %d/%d", appErr.Requested, appErr.Available)
	}
}

func TestTransientUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient("stock adjustment", cause)

	if !errors.Is(err, cause) {
		t.Error("Transient must wrap its cause")
	}
}

func TestPredicatesOnForeignErrors(t *testing.T) {
	plain := errors.New("boom")

	if IsNotFound(plain) || IsConflict(plain) || IsInsufficientStock(plain) {
		t.Error("predicates must not match plain errors")
	}
	if _, ok := AsError(plain); ok {
		t.Error("AsError must not match plain errors")
	}
	if _, ok := AsError(nil); ok {
		t.Error("AsError must not match nil")
	}
}
