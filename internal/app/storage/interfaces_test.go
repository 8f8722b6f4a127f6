package storage

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("create user: %w", Conflict("email"))
	if !errors.Is(err, ErrConflict) {
		t.Fatal("expected errors.Is(ErrConflict)")
	}
	if got := ConflictField(err); got != "email" {
		t.Fatalf("field = %q, want email", got)
	}
	if ConflictField(ErrNotFound) != "" {
		t.Fatal("expected empty field for non-conflict")
	}
}
