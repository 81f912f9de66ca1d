package throttle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const minPoll = 10 * time.Millisecond

// RedisLimiter shares the minimum interval between processes through a Redis
// key held with SET NX PX. When Redis is unreachable it falls back to a local
// Interval so a broken cache never stalls a run.
type RedisLimiter struct {
	client   redis.Cmdable
	key      string
	interval time.Duration
	owner    string
	local    *Interval
	logger   *slog.Logger
}

// NewRedisLimiter creates a limiter on key
func NewRedisLimiter(client redis.Cmdable, key string, interval time.Duration, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:   client,
		key:      key,
		interval: interval,
		owner:    uuid.NewString(),
		local:    NewInterval(interval),
		logger:   logger,
	}
}

// Wait blocks until this caller holds the interval key
func (l *RedisLimiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		acquired, err := l.client.SetNX(ctx, l.key, l.owner, l.interval).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("redis throttle unavailable, using local interval", "key", l.key, "error", err)
			return l.local.Wait(ctx)
		}
		if acquired {
			return nil
		}

		ttl, err := l.client.PTTL(ctx, l.key).Result()
		if err != nil || ttl <= 0 {
			ttl = minPoll
		}
		if ttl > l.interval {
			ttl = l.interval
		}
		if err := Sleep(ctx, ttl); err != nil {
			return err
		}
	}
}
