package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"publisher-backend/pkg/logger"
)

// releaseScript deletes the lock only when the stored value still equals the
// presented token. Compiled once per process.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLockService implements Service on top of Redis SET NX PX.
type RedisLockService struct {
	client *redis.Client
}

func NewRedisLockService(client *redis.Client) *RedisLockService {
	return &RedisLockService{client: client}
}

// AcquireLock attempts a single atomic "set if not exists with TTL". A Redis
// failure is treated the same as contention: the caller skips this cycle.
func (s *RedisLockService) AcquireLock(ctx context.Context, key string, ttl time.Duration) string {
	token := newToken()

	ok, err := s.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		logger.Error("lock acquire failed, skipping", err)
		return ""
	}
	if !ok {
		return ""
	}

	return token
}

// ReleaseLock runs the compare-and-delete script. Errors are logged only;
// a stuck lock expires via its TTL.
func (s *RedisLockService) ReleaseLock(ctx context.Context, key string, token string) {
	if token == "" {
		return
	}

	if err := releaseScript.Run(ctx, s.client, []string{keyPrefix + key}, token).Err(); err != nil && err != redis.Nil {
		logger.Error("lock release failed, waiting for TTL expiry", err)
	}
}
