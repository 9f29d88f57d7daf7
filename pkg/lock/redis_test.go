package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, opts Options) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, opts, nil), mr
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	l, mr := newRedisLocker(t, DefaultOptions())
	ctx := context.Background()

	release, err := l.Acquire(ctx, "cart:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("cart:1"))
	assert.Equal(t, DefaultOptions().TTL, mr.TTL("cart:1"))

	_, ok, err := l.TryLock(ctx, "cart:1")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("cart:1"))

	_, ok, err = l.TryLock(ctx, "cart:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ReleaseChecksToken(t *testing.T) {
	l, mr := newRedisLocker(t, DefaultOptions())
	ctx := context.Background()

	token, ok, err := l.TryLock(ctx, "cart:2")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, "cart:2", "someone-else"))
	got, err := mr.Get("cart:2")
	require.NoError(t, err)
	assert.Equal(t, token, got)

	require.NoError(t, l.Release(ctx, "cart:2", token))
	assert.False(t, mr.Exists("cart:2"))
}

func TestRedisLocker_ExpiredHolderKeepsSuccessorLock(t *testing.T) {
	l, mr := newRedisLocker(t, Options{TTL: time.Second})
	ctx := context.Background()

	release, err := l.Acquire(ctx, "cart:3")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	successor, ok, err := l.TryLock(ctx, "cart:3")
	require.NoError(t, err)
	require.True(t, ok)

	// the first holder's release must not drop the successor's lock
	release()
	got, err := mr.Get("cart:3")
	require.NoError(t, err)
	assert.Equal(t, successor, got)
}

func TestRedisLocker_TimesOut(t *testing.T) {
	l, _ := newRedisLocker(t, Options{TTL: time.Minute, RetryEvery: time.Millisecond, Wait: 20 * time.Millisecond})
	ctx := context.Background()

	release, err := l.Acquire(ctx, "cart:4")
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(ctx, "cart:4")
	assert.ErrorIs(t, err, ErrAcquireTimeout)
}

func TestRedisLocker_Errors(t *testing.T) {
	l, mr := newRedisLocker(t, DefaultOptions())

	_, _, err := l.TryLock(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	mr.Close()
	_, err = l.Acquire(context.Background(), "cart:5")
	assert.Error(t, err)
}
