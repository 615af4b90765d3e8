package httpx

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests per key in aligned fixed windows shared by every
// instance. Each window has its own Redis key that expires shortly after it closes.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Second {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix, now: time.Now}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := rl.windowKey(key)

	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, 2*rl.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= rl.limit, nil
}

func (rl *RedisLimiter) windowKey(key string) string {
	slot := rl.now().UnixNano() / int64(rl.window)
	return rl.prefix + ":" + key + ":" + strconv.FormatInt(slot, 10)
}

// RedisReadyCheck pings the client for /readyz.
func RedisReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
