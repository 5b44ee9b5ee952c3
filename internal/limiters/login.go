// Package limiters holds the Redis-backed counters that guard the login path.
package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginConfig configures the consecutive-failure lockout guard.
type LoginConfig struct {
	Threshold int
	Window    time.Duration
}

// ErrLimiterUnavailable indicates the failure-counter backend is unreachable.
var ErrLimiterUnavailable = errors.New("login limiter unavailable")

// LoginLimiter counts consecutive failed logins per identity. An absent key
// counts as zero. The decay window is attached only on the first failure so
// a burst of attempts shares one timer measured from the first failure, not
// extended by each subsequent one.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config LoginConfig
}

func NewLoginLimiter(redisClient redis.UniversalClient, cfg LoginConfig) *LoginLimiter {
	return &LoginLimiter{redis: redisClient, config: cfg}
}

func (l *LoginLimiter) key(identity string) string {
	return "fail-login:" + identity
}

// RecordFailure atomically increments the failure counter for an identity.
// Returns true once the count reaches the threshold; the caller locks the
// account. INCR serializes concurrent failures so exactly one increment
// crosses the threshold.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identity string) (bool, error) {
	count, err := l.redis.Incr(ctx, l.key(identity)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 && l.config.Window > 0 {
		if err := l.redis.Expire(ctx, l.key(identity), l.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	return count >= int64(l.config.Threshold), nil
}

// Reset clears the failure counter after a successful credential check.
func (l *LoginLimiter) Reset(ctx context.Context, identity string) error {
	if err := l.redis.Del(ctx, l.key(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return nil
}

// FailureCount returns the current count for an identity. Absent is zero.
func (l *LoginLimiter) FailureCount(ctx context.Context, identity string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(identity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return int(count), nil
}
