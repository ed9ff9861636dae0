package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, "test:", 0)

	t.Cleanup(func() { _ = store.Close() })

	return mr, store
}

func TestRedisStoreCreateAndGet(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-123")
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "sess-123")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.True(t, got.Active)
	require.Len(t, got.Transcript, 1)
	assert.Equal(t, SenderAI, got.Transcript[0].Sender)
	assert.Equal(t, sess.Module, got.Module)
}

func TestRedisStoreCreateConflict(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("sess-123")))
	assert.ErrorIs(t, store.Create(ctx, newTestSession("sess-123")), ErrConflict)
}

func TestRedisStoreGetNotFound(t *testing.T) {
	_, store := setupRedisStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUpdate(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	sess := newTestSession("sess-123")
	require.NoError(t, store.Create(ctx, sess))

	sess = sess.WithMessage(SenderUser, "my answer", time.Now().UTC())
	sess = sess.Completed("done", time.Now().UTC())
	require.NoError(t, store.Update(ctx, sess))

	got, err := store.Get(ctx, "sess-123")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "done", got.Summary)
	assert.Len(t, got.Transcript, 2)
}

func TestRedisStoreUpdateNotFound(t *testing.T) {
	_, store := setupRedisStore(t)
	err := store.Update(context.Background(), newTestSession("ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, "test:", time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTestSession("sess-ttl")))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sess-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreClosed(t *testing.T) {
	_, store := setupRedisStore(t)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Create(context.Background(), newTestSession("s1")), ErrStoreClosed)
}
