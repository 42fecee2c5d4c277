// Package apierr maps the sentinel errors of each domain/storage package
// onto the stable error-code vocabulary exposed to external collaborators
// (spec §6, §7): OK, BadInput, NotFound, AccessDenied, Duplicate,
// InvalidState, StorageFailure, ResourceLimit, NotImplemented.
package apierr

import (
	"errors"

	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/domain/team"
	"github.com/rpggio/synapse/internal/store"
)

// Code is one of the stable error codes surfaced to external collaborators.
type Code string

const (
	OK             Code = "OK"
	BadInput       Code = "BadInput"
	NotFound       Code = "NotFound"
	AccessDenied   Code = "AccessDenied"
	Duplicate      Code = "Duplicate"
	InvalidState   Code = "InvalidState"
	StorageFailure Code = "StorageFailure"
	ResourceLimit  Code = "ResourceLimit"
	NotImplemented Code = "NotImplemented"
)

// Error pairs a stable code with the underlying cause, the way the
// teacher maps repository sentinels to domain sentinels at each layer.
type Error struct {
	Code  Code
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap classifies err into a stable Code by matching it against the
// sentinel errors defined across the domain and storage packages. An
// unrecognized non-nil error is classified StorageFailure, the
// conservative default for an unexpected failure mode (spec §7.3).
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, record.ErrInvalidInput):
		return &Error{Code: BadInput, Cause: err}
	case errors.Is(err, record.ErrAccessDenied):
		return &Error{Code: AccessDenied, Cause: err}
	case errors.Is(err, record.ErrNotFound):
		return &Error{Code: NotFound, Cause: err}
	case errors.Is(err, record.ErrConflict):
		return &Error{Code: InvalidState, Cause: err}
	case errors.Is(err, team.ErrInvalidInput):
		return &Error{Code: BadInput, Cause: err}
	case errors.Is(err, team.ErrNotFound):
		return &Error{Code: NotFound, Cause: err}
	case errors.Is(err, team.ErrDuplicate):
		return &Error{Code: Duplicate, Cause: err}
	case errors.Is(err, team.ErrOwnerCannotLeave), errors.Is(err, team.ErrNotOwner),
		errors.Is(err, team.ErrAlreadyMember), errors.Is(err, team.ErrNotMember):
		return &Error{Code: InvalidState, Cause: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Code: NotFound, Cause: err}
	case errors.Is(err, store.ErrStorageFailure):
		return &Error{Code: StorageFailure, Cause: err}
	default:
		return &Error{Code: StorageFailure, Cause: err}
	}
}
