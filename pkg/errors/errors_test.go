package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := New(ErrValidation, "week_number must be at least 1", nil)
	want := "[VALIDATION_ERROR] week_number must be at least 1"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := New(ErrStorage, "failed to record deal", stderrors.New("disk full"))
	want = "[STORAGE_ERROR] failed to record deal: disk full"
	if wrapped.Error() != want {
		t.Fatalf("Error() = %q, want %q", wrapped.Error(), want)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("constraint violated")
	err := New(ErrStorage, "failed to save", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable through errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrNotFound, "deal not found", nil)); got != ErrNotFound {
		t.Fatalf("CodeOf = %q, want %q", got, ErrNotFound)
	}

	// Codes survive another layer of wrapping.
	outer := fmt.Errorf("handling request: %w", New(ErrPermissionDenied, "wrong guild", nil))
	if got := CodeOf(outer); got != ErrPermissionDenied {
		t.Fatalf("CodeOf wrapped = %q, want %q", got, ErrPermissionDenied)
	}

	// Anything outside the taxonomy reads as a storage fault.
	if got := CodeOf(stderrors.New("plain")); got != ErrStorage {
		t.Fatalf("CodeOf plain = %q, want %q", got, ErrStorage)
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrValidation, "bad input", nil)
	if !IsCode(err, ErrValidation) {
		t.Fatal("IsCode should match the carried code")
	}
	if IsCode(err, ErrNotFound) {
		t.Fatal("IsCode matched the wrong code")
	}
}
