package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "used:jti:"

// RedisReplayLedger backs single-use enforcement with plain key-expiry
// records. The ledger is not transactionally joined with the user-record
// store, so a crash between persisting a mutation and marking its token
// leaves the token replayable for its remaining validity.
type RedisReplayLedger struct {
	redis redis.UniversalClient
}

func NewRedisReplayLedger(redisClient redis.UniversalClient) *RedisReplayLedger {
	return &RedisReplayLedger{redis: redisClient}
}

func (l *RedisReplayLedger) key(jti string) string {
	return replayKeyPrefix + jti
}

func (l *RedisReplayLedger) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := l.redis.Exists(ctx, l.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *RedisReplayLedger) Mark(ctx context.Context, jti string, ttl time.Duration) error {
	return l.redis.Set(ctx, l.key(jti), "1", ttl).Err()
}
