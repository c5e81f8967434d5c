package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker serializes work per key. Acquire fails fast with ErrBusy when the
// key is held.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TxLock is a redis lock with a TTL so a crashed holder cannot block a
// signing key forever.
type TxLock struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewTxLock(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *TxLock {
	return &TxLock{rdb: rdb, ttl: ttl, log: log}
}

func (l *TxLock) Acquire(ctx context.Context, key string) (func(), error) {
	key = "lock:" + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrBusy
	}

	return func() {
		// the request context may already be cancelled
		err := releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
