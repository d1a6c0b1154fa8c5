// Package audit persists flavor-gate decisions (component E) to a
// SQLite-backed log, so a coalesced accept/reject/rotation history
// survives process restarts (spec section 5 "SELinux cache coalescing"
// generalizes here to "decision history coalescing").
package audit

import "fmt"

// StorageError represents a failure from the audit storage backend.
type StorageError struct {
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit: storage error [operation=%s]: %v", e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

func newStorageError(op string, cause error) *StorageError {
	return &StorageError{Operation: op, Cause: cause}
}
