package tokenstore_test

import (
	"testing"

	"github.com/book-expert/vridge/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TokenRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := tokenstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Empty(t, store.GetToken())
	assert.True(t, store.SetToken("msg-token"))
	assert.Equal(t, "msg-token", store.GetToken())
	assert.True(t, store.SetToken("rotated"))
	assert.Equal(t, "rotated", store.GetToken())
}

func TestStore_Preferences(t *testing.T) {
	t.Parallel()

	store, err := tokenstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Get("identity")
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	require.NoError(t, store.Set("identity", "jwt"))

	value, err := store.Get("identity")
	require.NoError(t, err)
	assert.Equal(t, "jwt", value)

	require.NoError(t, store.Delete("identity"))
	require.NoError(t, store.Delete("identity"))

	_, err = store.Get("identity")
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := tokenstore.Open(dir)
	require.NoError(t, err)
	require.True(t, store.SetToken("persisted"))
	require.NoError(t, store.Close())

	reopened, err := tokenstore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	assert.Equal(t, "persisted", reopened.GetToken())
}

func TestStore_SetTokenAfterCloseReportsFalse(t *testing.T) {
	t.Parallel()

	store, err := tokenstore.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.False(t, store.SetToken("late"))
	assert.Empty(t, store.GetToken())
}
