package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGetServiceErrorUnwraps(t *testing.T) {
	base := NotFound("User not found")
	wrapped := fmt.Errorf("lookup: %w", base)

	got := GetServiceError(wrapped)
	if got == nil {
		t.Fatal("expected service error in chain")
	}
	if got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", got.HTTPStatus)
	}
	if !Is(wrapped, CodeNotFound) {
		t.Fatal("Is(NOT_FOUND) = false")
	}
}

func TestHTTPStatusDefaultsToInternal(t *testing.T) {
	if got := HTTPStatus(stderrors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
	if GetServiceError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestWithDetails(t *testing.T) {
	err := RateLimitExceeded(5, "1s")
	if err.Details["limit"] != 5 || err.Details["window"] != "1s" {
		t.Fatalf("unexpected details: %v", err.Details)
	}
	if err.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("status = %d", err.HTTPStatus)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := stderrors.New("duplicate key")
	err := Conflict("Email already exists", cause)
	if err.Error() != "Email already exists: duplicate key" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be unwrappable")
	}
}
