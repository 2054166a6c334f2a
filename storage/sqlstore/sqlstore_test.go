package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/storage/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ auth.Storage = (*sqlstore.Store)(nil)

func openStore(t *testing.T) (*sqlstore.Store, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "session.db")
	store, err := sqlstore.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dsn
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)

	_, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "auth_token", "abc"))
	v, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, store.Set(ctx, "auth_token", "def"), "second write upserts")
	v, _, err = store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, store.Delete(ctx, "auth_token"))
	require.NoError(t, store.Delete(ctx, "auth_token"))

	_, ok, err = store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	store, dsn := openStore(t)

	require.NoError(t, store.Set(ctx, "user_info", `{"user_id":"u-1"}`))
	require.NoError(t, store.Close())

	reopened, err := sqlstore.Open(ctx, dsn)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "user_info")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"user_id":"u-1"}`, v)
}
