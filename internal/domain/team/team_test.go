package team

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTeam_OwnerIsInitialMember(t *testing.T) {
	tm, err := NewTeam("platform", "ci-owner")
	require.NoError(t, err)
	require.True(t, tm.IsMember("ci-owner"))
}

func TestNewTeam_RejectsBlankFields(t *testing.T) {
	_, err := NewTeam("", "ci-owner")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewTeam("platform", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestJoin_OnlyOwnerMayInvite(t *testing.T) {
	tm, err := NewTeam("platform", "ci-owner")
	require.NoError(t, err)

	err = tm.Join("ci-b", "ci-not-owner")
	require.ErrorIs(t, err, ErrNotOwner)
	require.False(t, tm.IsMember("ci-b"))

	require.NoError(t, tm.Join("ci-b", "ci-owner"))
	require.True(t, tm.IsMember("ci-b"))
}

func TestJoin_RejectsDuplicateMember(t *testing.T) {
	tm, err := NewTeam("platform", "ci-owner")
	require.NoError(t, err)
	require.NoError(t, tm.Join("ci-b", "ci-owner"))

	err = tm.Join("ci-b", "ci-owner")
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestLeave_OwnerCannotLeave(t *testing.T) {
	tm, err := NewTeam("platform", "ci-owner")
	require.NoError(t, err)

	err = tm.Leave("ci-owner")
	require.ErrorIs(t, err, ErrOwnerCannotLeave)
}

func TestLeave_RejectsNonMember(t *testing.T) {
	tm, err := NewTeam("platform", "ci-owner")
	require.NoError(t, err)

	err = tm.Leave("ci-stranger")
	require.ErrorIs(t, err, ErrNotMember)
}

func TestLeave_RemovesMember(t *testing.T) {
	tm, err := NewTeam("platform", "ci-owner")
	require.NoError(t, err)
	require.NoError(t, tm.Join("ci-b", "ci-owner"))

	require.NoError(t, tm.Leave("ci-b"))
	require.False(t, tm.IsMember("ci-b"))
}
