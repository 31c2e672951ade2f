package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCategory(t *testing.T) {
	err := NewValidationError("amount %d too small", 5)
	if got := ErrorCategory(err); got != CategoryValidation {
		t.Errorf("category = %q, want validation", got)
	}
	if !IsCategory(err, CategoryValidation) {
		t.Error("IsCategory mismatch")
	}
	if IsCategory(err, CategoryNetwork) {
		t.Error("IsCategory matched the wrong category")
	}
}

func TestErrorCategoryPlainError(t *testing.T) {
	if got := ErrorCategory(errors.New("plain")); got != "" {
		t.Errorf("category = %q, want empty", got)
	}
}

func TestErrorCategoryWrapped(t *testing.T) {
	inner := NewNetworkError("connection refused")
	wrapped := fmt.Errorf("listing notifications: %w", inner)
	if !IsCategory(wrapped, CategoryNetwork) {
		t.Error("expected category to survive wrapping")
	}
}

func TestCategorizedErrorMessage(t *testing.T) {
	err := NewProviderError("card_declined")
	want := "provider: card_declined"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
