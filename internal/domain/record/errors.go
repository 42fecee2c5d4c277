package record

import "errors"

var (
	// ErrNotFound indicates the record doesn't exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput indicates invalid input for record construction.
	ErrInvalidInput = errors.New("invalid record input")
	// ErrAccessDenied indicates the requester may not read this record.
	ErrAccessDenied = errors.New("access denied")
	// ErrConflict indicates a conflicting write; the store returns it when
	// an insert reuses an existing record ID.
	ErrConflict = errors.New("record modified concurrently")
)
