package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/storage/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ auth.Storage = (*redisstore.Store)(nil)

func newStore(t *testing.T, opts ...redisstore.Option) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := redisstore.New(cli, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	_, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "auth_token", "abc"))
	assert.True(t, mr.Exists(redisstore.DefaultPrefix+"auth_token"))

	v, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.Equal(t, time.Duration(0), mr.TTL(redisstore.DefaultPrefix+"auth_token"))

	require.NoError(t, store.Delete(ctx, "auth_token"))
	require.NoError(t, store.Delete(ctx, "auth_token"))
	assert.False(t, mr.Exists(redisstore.DefaultPrefix+"auth_token"))
}

func TestStore_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, redisstore.WithPrefix("console:"), redisstore.WithTTL(time.Hour))

	require.NoError(t, store.Set(ctx, "auth_token", "abc"))

	got, err := mr.Get("console:auth_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
	assert.Equal(t, time.Hour, mr.TTL("console:auth_token"))

	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	store := redisstore.New(redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1}))
	defer store.Close()

	_, _, err = store.Get(ctx, "auth_token")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "auth_token", "abc"))
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := redisstore.Connect(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "auth_token", "abc"))
	assert.True(t, mr.Exists(redisstore.DefaultPrefix+"auth_token"))

	_, err = redisstore.Connect(ctx, "not-a-url")
	assert.Error(t, err)
}
