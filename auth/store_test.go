package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptics.app/cryptics-client/constants"
	"cryptics.app/cryptics-client/model"
)

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	tokens := &model.AuthTokens{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		User:         &model.User{ID: "7", Email: "a@b.c", Username: "abc"},
	}
	require.NoError(t, store.Save(tokens))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access-1", loaded.AccessToken)
	assert.Equal(t, "refresh-1", loaded.RefreshToken)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "abc", loaded.User.Username)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStoreRefreshSlotExclusive(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	acquired, err := store.AcquireRefreshSlot()
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = store.AcquireRefreshSlot()
	require.NoError(t, err)
	assert.False(t, acquired)

	inProgress, err := store.RefreshInProgress()
	require.NoError(t, err)
	assert.True(t, inProgress)

	require.NoError(t, store.ReleaseRefreshSlot())

	inProgress, err = store.RefreshInProgress()
	require.NoError(t, err)
	assert.False(t, inProgress)

	acquired, err = store.AcquireRefreshSlot()
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestFileStoreBreaksStaleFlag(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	acquired, err := store.AcquireRefreshSlot()
	require.NoError(t, err)
	require.True(t, acquired)

	// age the flag past the stale threshold, as if a previous run crashed
	// mid-refresh and never released it
	flag := filepath.Join(dir, constants.RefreshFlagFile)
	old := time.Now().Add(-2 * staleFlagAge)
	require.NoError(t, os.Chtimes(flag, old, old))

	acquired, err = store.AcquireRefreshSlot()
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryStoreRefreshSlot(t *testing.T) {
	store := NewMemoryStore()

	acquired, err := store.AcquireRefreshSlot()
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = store.AcquireRefreshSlot()
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, store.ReleaseRefreshSlot())

	inProgress, err := store.RefreshInProgress()
	require.NoError(t, err)
	assert.False(t, inProgress)
}
