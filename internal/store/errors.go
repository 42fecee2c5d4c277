package store

import "errors"

var (
	// ErrNotFound indicates the requested record, owner root, or segment
	// offset doesn't exist.
	ErrNotFound = errors.New("store: not found")
	// ErrStorageFailure indicates an unexpected I/O or database failure.
	ErrStorageFailure = errors.New("store: storage failure")
	// ErrConflict indicates an optimistic-concurrency version mismatch on
	// an update (spec §5's tick/version counters).
	ErrConflict = errors.New("store: version conflict")
)
