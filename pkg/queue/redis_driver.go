package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

const (
	redisQueueKey   = "stockroom:queue:jobs"
	redisDelayedKey = "stockroom:queue:delayed"
)

// RedisDriver keeps ready jobs in a list (LPUSH/BRPOP) and delayed retries
// in a sorted set scored by due time in Unix milliseconds.
type RedisDriver struct {
	rdb  *redis.Client
	poll time.Duration
	now  func() time.Time
}

// NewRedisDriver creates a driver on rdb. Call Promote in the background so
// delayed jobs become ready.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	return &RedisDriver{rdb: rdb, poll: 5 * time.Second, now: time.Now}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop blocks up to the poll interval; (nil, nil) means nothing was ready.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, d.poll, redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	due := float64(d.now().Add(delay).UnixMilli())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{Score: due, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// Promote moves due delayed jobs to the ready list every interval until ctx
// is cancelled.
func (d *RedisDriver) Promote(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.promoteDue(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("queue/redis: promote delayed", "error", err)
			}
		}
	}
}

// promoteDue moves every job whose due time has passed. A job is pushed
// only by the caller whose ZREM removed it, so concurrent promoters never
// duplicate work.
func (d *RedisDriver) promoteDue(ctx context.Context) (int, error) {
	max := strconv.FormatInt(d.now().UnixMilli(), 10)
	due, err := d.rdb.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, job := range due {
		removed, err := d.rdb.ZRem(ctx, redisDelayedKey, job).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := d.rdb.LPush(ctx, redisQueueKey, job).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
