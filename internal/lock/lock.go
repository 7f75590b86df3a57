package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "clone:target"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTargetLocker serialises clone runs per target account across processes
type RedisTargetLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTargetLocker creates a locker; ttl bounds how long a crashed run can hold a target
func NewRedisTargetLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisTargetLocker {
	return &RedisTargetLocker{client: client, ttl: ttl, logger: logger}
}

// Acquire takes the lock for targetID. acquired is false when another run holds it.
func (l *RedisTargetLocker) Acquire(ctx context.Context, targetID uuid.UUID) (func(), bool, error) {
	key := fmt.Sprintf("%s:%s", keyPrefix, targetID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire clone lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The caller's context may already be done when the run finishes.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release clone lock",
				zap.Error(err),
				zap.String("target_id", targetID.String()),
			)
		}
	}

	return release, true, nil
}
