package services

import (
	"errors"
	"fmt"
)

// Error categories used across payment and notification flows. Read paths
// degrade on auth/network categories instead of failing the request; write
// paths surface them to the caller.
const (
	CategoryNetwork    = "network"
	CategoryAuth       = "auth"
	CategoryValidation = "validation"
	CategoryProvider   = "provider"
	CategoryNotFound   = "not_found"
	CategoryConflict   = "conflict"
)

// CategorizedError tags an error with one of the categories above.
type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Category + ": " + e.Err.Error()
}

func (e *CategorizedError) Unwrap() error { return e.Err }

func categorized(category, format string, args ...interface{}) error {
	return &CategorizedError{Category: category, Err: fmt.Errorf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) error {
	return categorized(CategoryValidation, format, args...)
}

func NewAuthError(format string, args ...interface{}) error {
	return categorized(CategoryAuth, format, args...)
}

func NewNetworkError(format string, args ...interface{}) error {
	return categorized(CategoryNetwork, format, args...)
}

func NewProviderError(format string, args ...interface{}) error {
	return categorized(CategoryProvider, format, args...)
}

func NewNotFoundError(format string, args ...interface{}) error {
	return categorized(CategoryNotFound, format, args...)
}

func NewConflictError(format string, args ...interface{}) error {
	return categorized(CategoryConflict, format, args...)
}

// ErrorCategory returns the category of err, or empty for plain errors.
func ErrorCategory(err error) string {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

func IsCategory(err error, category string) bool {
	return ErrorCategory(err) == category
}
