package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker is a SETNX lock with token-checked release, shared across replicas.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	opts   Options
	log    *zap.Logger
}

func NewRedisLocker(client *redis.Client, opts Options, log *zap.Logger) *RedisLocker {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		opts:   opts.normalize(),
		log:    log.Named("lock.redis"),
	}
}

// TryLock makes a single attempt and returns the owner token on success.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, ErrEmptyKey
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Acquire polls TryLock until it wins, ctx ends, or the wait budget runs out.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	deadline := time.Now().Add(l.opts.Wait)
	ticker := time.NewTicker(l.opts.RetryEvery)
	defer ticker.Stop()

	for {
		token, ok, err := l.TryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// release must run even when the request context was cancelled
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.Release(releaseCtx, key, token); err != nil {
					l.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrAcquireTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ Locker = (*RedisLocker)(nil)
