package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTxLock(t *testing.T, ttl time.Duration) (*TxLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTxLock(rdb, ttl, zap.NewNop()), mr
}

func TestTxLockAcquireBusyRelease(t *testing.T) {
	lock, mr := newTestTxLock(t, 30*time.Second)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "issuer")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:issuer"))
	assert.Equal(t, 30*time.Second, mr.TTL("lock:issuer"))

	_, err = lock.Acquire(ctx, "issuer")
	require.ErrorIs(t, err, ErrBusy)

	other, err := lock.Acquire(ctx, "rot")
	require.NoError(t, err, "keys are independent")
	other()

	release()
	assert.False(t, mr.Exists("lock:issuer"))

	again, err := lock.Acquire(ctx, "issuer")
	require.NoError(t, err)
	again()
}

func TestTxLockReleaseKeepsForeignToken(t *testing.T) {
	lock, mr := newTestTxLock(t, time.Second)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "issuer")
	require.NoError(t, err)

	// our lease expires and another process takes the key
	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("lock:issuer"))
	next, err := lock.Acquire(ctx, "issuer")
	require.NoError(t, err)
	token, err := mr.Get("lock:issuer")
	require.NoError(t, err)

	release()
	got, err := mr.Get("lock:issuer")
	require.NoError(t, err)
	assert.Equal(t, token, got)

	next()
	assert.False(t, mr.Exists("lock:issuer"))
}

func TestTxLockRedisDown(t *testing.T) {
	lock, mr := newTestTxLock(t, time.Second)
	mr.Close()

	_, err := lock.Acquire(context.Background(), "issuer")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBusy)
}
