package acl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_IdempotentWhenIdentical(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	require.NoError(t, tbl.Add("notes.txt", "alice"))
}

func TestAdd_RejectsDifferentOwner(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	err := tbl.Add("notes.txt", "bob")
	require.Error(t, err)
}

// Invariant 2: exactly one owner; revoke of the owner is a no-op error.
func TestRevoke_OfOwnerIsNoOpError(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	err := tbl.Revoke("notes.txt", "alice")
	require.Error(t, err)
	assert.True(t, tbl.Check("notes.txt", "alice", LevelOwner))
}

func TestRevoke_OfAbsentUserIsNoOp(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	err := tbl.Revoke("notes.txt", "nobody")
	require.NoError(t, err)
}

func TestGrant_CannotChangeOwnerLevel(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	err := tbl.Grant("notes.txt", "alice", LevelRead)
	require.Error(t, err)
}

func TestGrant_CannotGrantOwnerLevel(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	err := tbl.Grant("notes.txt", "bob", LevelOwner)
	require.Error(t, err)
}

// Property: grant(grant(acl, u, L), u, L) == grant(acl, u, L).
func TestGrant_Idempotent(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	require.NoError(t, tbl.Grant("notes.txt", "bob", LevelWrite))
	require.NoError(t, tbl.Grant("notes.txt", "bob", LevelWrite))
	assert.True(t, tbl.Check("notes.txt", "bob", LevelWrite))
}

// Invariant 5: check(file, user, L) returns true iff held level >= L.
func TestCheck_OrderReadWriteOwner(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	require.NoError(t, tbl.Grant("notes.txt", "bob", LevelWrite))

	assert.True(t, tbl.Check("notes.txt", "bob", LevelRead))
	assert.True(t, tbl.Check("notes.txt", "bob", LevelWrite))
	assert.False(t, tbl.Check("notes.txt", "bob", LevelOwner))
	assert.False(t, tbl.Check("notes.txt", "carol", LevelRead))
}

func TestCheck_UnknownFileIsFalse(t *testing.T) {
	tbl := New()
	assert.False(t, tbl.Check("missing.txt", "alice", LevelRead))
}

func TestReadersAndWriters_ExcludeOwner(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	require.NoError(t, tbl.Grant("notes.txt", "bob", LevelRead))
	require.NoError(t, tbl.Grant("notes.txt", "carol", LevelWrite))

	readers := tbl.Readers("notes.txt")
	writers := tbl.Writers("notes.txt")
	assert.ElementsMatch(t, []string{"bob", "carol"}, readers)
	assert.ElementsMatch(t, []string{"carol"}, writers)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	require.NoError(t, tbl.Grant("notes.txt", "bob", LevelRead))
	require.NoError(t, tbl.Add("empty.txt", "carol"))

	path := filepath.Join(t.TempDir(), "acl.cache")
	require.NoError(t, tbl.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.True(t, loaded.Check("notes.txt", "bob", LevelRead))
	owner, ok := loaded.Owner("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "alice", owner)
	owner2, ok := loaded.Owner("empty.txt")
	require.True(t, ok)
	assert.Equal(t, "carol", owner2)
}

func TestLoad_MissingCacheIsNotError(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "does-not-exist.cache"))
	require.NoError(t, err)
	assert.False(t, tbl.Check("anything.txt", "alice", LevelRead))
}

func TestRemove_DropsEntry(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Add("notes.txt", "alice"))
	tbl.Remove("notes.txt")
	assert.False(t, tbl.Check("notes.txt", "alice", LevelOwner))
	_, ok := tbl.Owner("notes.txt")
	assert.False(t, ok)
}
