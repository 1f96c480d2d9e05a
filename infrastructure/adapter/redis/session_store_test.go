package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oily/oily-api/application/port/outbound"
	domainerr "github.com/oily/oily-api/domain/error"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), mr
}

func TestSessionStore_SetGetWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "refresh:abc", "payload", time.Minute))

	value, err := store.Get(ctx, "refresh:abc")
	require.NoError(t, err)
	assert.Equal(t, "payload", value)
	assert.Equal(t, time.Minute, mr.TTL("refresh:abc"))

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "refresh:abc")
	assert.ErrorIs(t, err, outbound.ErrSessionKeyNotFound)
}

func TestSessionStore_ZeroTTLNeverExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	assert.Equal(t, time.Duration(0), mr.TTL("k"))
}

func TestSessionStore_ExistsAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, store.Set(ctx, "b", "2", time.Minute))

	ok, err := store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "a", "b", "missing"))

	ok, err = store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx))
}

func TestSessionStore_CompareAndDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "member-refresh:m1", "r1", time.Minute))
	require.NoError(t, store.Set(ctx, "refresh:r1", "{}", time.Minute))

	ok, err := store.CompareAndDelete(ctx, "member-refresh:m1", "other", "refresh:other")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("member-refresh:m1"))

	ok, err = store.CompareAndDelete(ctx, "member-refresh:m1", "r1", "refresh:r1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("member-refresh:m1"))
	assert.False(t, mr.Exists("refresh:r1"))

	ok, err = store.CompareAndDelete(ctx, "member-refresh:m1", "r1", "refresh:r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_CompareAndDeleteSingleWinner(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "member-refresh:m1", "r1", time.Minute))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.CompareAndDelete(ctx, "member-refresh:m1", "r1")
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestSessionStore_OutageIsStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, domainerr.ErrStoreUnavailable)

	err = store.Set(context.Background(), "k", "v", time.Second)
	assert.ErrorIs(t, err, domainerr.ErrStoreUnavailable)
}
