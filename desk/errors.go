/*
errors.go - Error taxonomy for the clientdesk domain

PURPOSE:
  All error kinds in one place. Services return these (possibly wrapped) and
  the api package maps them to HTTP status codes in a single function.

ERROR CATEGORIES:
  1. Validation  - missing or blank required input           -> 400
  2. Not found   - referenced id has no row                  -> 404
  3. Unavailable - optional capability not present           -> 501
  4. Service     - downstream transport failure (e.g. SMTP)  -> 500

  Anything else is an unclassified store error and surfaces as a 500.

USAGE:
    if errors.Is(err, desk.ErrNotFound) {
        ...
    }

    var ve *desk.ValidationError
    if errors.As(err, &ve) {
        log.Println(ve.Field)
    }

SEE ALSO:
  - api/errors.go: HTTP mapping
*/
package desk

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable is returned when an optional capability is disabled.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrServiceError is returned when a downstream transport fails.
	ErrServiceError = errors.New("service error")
)

// Specific not-found conditions. Both unwrap to ErrNotFound.
var (
	ErrIdeaNotFound      = &NotFoundError{Resource: "idea"}
	ErrClientNotFound    = &NotFoundError{Resource: "client"}
	ErrAssigneeNotFound  = &NotFoundError{Resource: "assignee"}
	ErrWorkpaperNotFound = &NotFoundError{Resource: "workpaper"}
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError identifies the missing resource. ID is zero for the
// package-level sentinels.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Is matches another NotFoundError of the same resource regardless of ID,
// so errors.Is(err, ErrClientNotFound) holds for any missing client.
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	return ok && t.Resource == e.Resource
}

func notFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ServiceError wraps a downstream failure. Its message is the downstream
// error text so callers can pass it through.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() []error {
	return []error{ErrServiceError, e.Err}
}

// Unavailable reports a disabled capability.
func Unavailable(capability string) error {
	return fmt.Errorf("%s is not available: %w", capability, ErrServiceUnavailable)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}
