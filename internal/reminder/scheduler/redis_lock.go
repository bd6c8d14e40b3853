package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tickLockKey = "docwatch:scheduler:tick-lock"

// releaseScript deletes the lock only when the caller still owns it, so a
// slow tick that outlives its TTL cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTickLock implements TickLock with SET NX PX and an owner token.
type RedisTickLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisTickLock constructs the lock. The TTL should comfortably exceed a
// worst-case tick duration.
func NewRedisTickLock(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisTickLock {
	return &RedisTickLock{client: client, ttl: ttl, logger: logger}
}

func (l *RedisTickLock) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, tickLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return func() {}, false, nil
	}

	release := func() {
		// Detached context so shutdown cancellation cannot leak the lock
		// until the TTL expires.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{tickLockKey}, token).Err(); err != nil {
			l.logger.Warn("release tick lock failed, waiting out ttl", "error", err)
		}
	}
	return release, true, nil
}
