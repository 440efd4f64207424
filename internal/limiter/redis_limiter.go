package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests per client in fixed windows stored in Redis,
// so every server sharing the Redis instance enforces one limit.
//
// Key format: ratelimit:<client>:<window index>
type RedisLimiter struct {
	client *redis.Client
	ctx    context.Context
	limit  int64
	window time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewRedisLimiter allows limit requests per client in each window
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *RedisLimiter {
	if log == nil {
		log = logger.NewDefault()
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		ctx:    context.Background(),
		limit:  int64(max(limit, 1)),
		window: window,
		now:    time.Now,
		logger: log.WithComponent("RedisLimiter"),
	}
}

// Allow implements Limiter.
//
// INCR and EXPIRE run in one MULTI/EXEC transaction; the key lives for two
// windows so a slow clock on another server still sees it. Redis errors fail
// open: a broken limiter must not stop evaluation traffic.
func (rl *RedisLimiter) Allow(client string) bool {
	windowSeconds := int64(rl.window / time.Second)
	index := rl.now().Unix() / windowSeconds
	key := fmt.Sprintf("ratelimit:%s:%d", client, index)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(rl.ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(rl.ctx, key)
		pipe.Expire(rl.ctx, key, 2*rl.window)
		return nil
	})
	if err != nil {
		rl.logger.Warn().Err(err).Str("client", client).Msg("Rate limit check failed, allowing request")
		return true
	}

	return incr.Val() <= rl.limit
}

// Close closes the Redis connection
func (rl *RedisLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
