/*
errors.go - Centralized error types for the production ledger

ERROR CATEGORIES:
  1. Validation - unknown operation, unknown/inactive dimension, negative
     quantity, malformed date, natural key already taken on create
  2. Not found  - point lookup/update by id that does not exist
  3. Conflict   - second opening balance creation

USAGE:
  if errors.Is(err, ledger.ErrValidation) { ... 400 ... }

  var nf *ledger.NotFoundError
  if errors.As(err, &nf) { ... nf.Kind ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every rejected input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a write-once record is written twice.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoOpeningBalance signals that no opening balance has been recorded.
	// It is distinct from a recorded balance with zero quantities.
	ErrNoOpeningBalance = errors.New("no historical opening balance")

	// ErrDuplicateKey is returned by stores when an insert collides with an
	// existing natural key.
	ErrDuplicateKey = errors.New("duplicate natural key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the kind of record and the key that was missing.
type NotFoundError struct {
	Kind string
	Key  any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError is returned on a second write to a write-once record.
type AlreadyExistsError struct {
	Kind string
}

func (e *AlreadyExistsError) Error() string {
	return e.Kind + " already exists"
}

func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// BatchEntryError locates a failing entry inside a batch submission.
type BatchEntryError struct {
	Index     int
	Operation string
	Err       error
}

func (e *BatchEntryError) Error() string {
	return fmt.Sprintf("batch entry %d (%q): %v", e.Index, e.Operation, e.Err)
}

func (e *BatchEntryError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrAlreadyExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoOpeningBalance)
}
