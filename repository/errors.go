// Package repository holds the errors shared by every store implementation.
package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a conditional write matched no row because
	// the record left the expected state.
	ErrStale           = errors.New("record state changed")
	ErrBookUnavailable = errors.New("book not available")
)
