package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist upstream.
	// HTTP Status: 404 Not Found
	ErrUserNotFound = errors.New("user not found")

	// ErrValidation indicates a submitted record failed form validation.
	// HTTP Status: 422 Unprocessable Entity
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamUnavailable indicates the users API could not be reached
	// or answered with an unexpected status.
	// HTTP Status: 502 Bad Gateway
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrReadOnlyField indicates an attempt to edit a derived field.
	ErrReadOnlyField = errors.New("field is read-only")

	// ErrUnknownField indicates a form field name that does not exist.
	ErrUnknownField = errors.New("unknown field")
)

// ValidationError carries the field errors of a rejected submission.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
