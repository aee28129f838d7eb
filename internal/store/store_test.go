package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "kindcli.db")
	s, err := Open(path)
	require.NoError(t, err)

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "fresh store holds nothing")

	require.NoError(t, s.Save("tok-1"))
	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Last write wins.
	require.NoError(t, s.Save("tok-2"))
	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, s.Clear())
	token, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	// Clearing an already-empty store is fine.
	require.NoError(t, s.Clear())
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kindcli.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("persisted"))

	reopened, err := Open(path)
	require.NoError(t, err)
	token, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save("tok"))
	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, s.Clear())
	token, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}
