package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/synapse/internal/domain/record"
	"github.com/rpggio/synapse/internal/domain/team"
	"github.com/rpggio/synapse/internal/store"
)

func TestWrap_NilReturnsNil(t *testing.T) {
	require.Nil(t, Wrap(nil))
}

func TestWrap_ClassifiesKnownSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code Code
	}{
		{"record invalid input", record.ErrInvalidInput, BadInput},
		{"record access denied", record.ErrAccessDenied, AccessDenied},
		{"record not found", record.ErrNotFound, NotFound},
		{"record conflict", record.ErrConflict, InvalidState},
		{"team invalid input", team.ErrInvalidInput, BadInput},
		{"team not found", team.ErrNotFound, NotFound},
		{"team duplicate", team.ErrDuplicate, Duplicate},
		{"team owner cannot leave", team.ErrOwnerCannotLeave, InvalidState},
		{"team not owner", team.ErrNotOwner, InvalidState},
		{"store not found", store.ErrNotFound, NotFound},
		{"store storage failure", store.ErrStorageFailure, StorageFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Wrap(c.err)
			require.Equal(t, c.code, got.Code)
			require.ErrorIs(t, got, c.err)
		})
	}
}

func TestWrap_UnrecognizedErrorDefaultsToStorageFailure(t *testing.T) {
	got := Wrap(errors.New("something unexpected"))
	require.Equal(t, StorageFailure, got.Code)
}

func TestError_StringIncludesCauseWhenPresent(t *testing.T) {
	wrapped := &Error{Code: NotFound, Cause: errors.New("no such record")}
	require.Equal(t, "NotFound: no such record", wrapped.Error())

	bare := &Error{Code: OK}
	require.Equal(t, "OK", bare.Error())
}
