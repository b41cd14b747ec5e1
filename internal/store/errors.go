package store

import "errors"

// Sentinel errors for caller-visible failure classes. Store functions wrap
// these with fmt.Errorf("%w: ...") so handlers can map them to HTTP statuses
// with errors.Is.
var (
	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a validation failure on caller-supplied data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict marks a delete blocked by a referential dependency.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState marks an edit or delete of a purchase order that is no
	// longer pending.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTransition marks an illegal purchase order status change.
	ErrInvalidTransition = errors.New("invalid transition")
)
