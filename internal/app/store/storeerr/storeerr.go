// Package storeerr holds the sentinel errors shared by the record-store
// backends, so the task engine can tell "no such record" and "lost a
// conditional write" apart without knowing which database is behind it.
package storeerr

import "errors"

var (
	// ErrNotFound is returned when a lookup by identity matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique key would be violated.
	ErrDuplicate = errors.New("record already exists")

	// ErrStale is returned when a conditional write found the record in a
	// different state than the caller read.
	ErrStale = errors.New("record changed since it was read")
)
