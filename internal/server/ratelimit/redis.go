package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/metrics"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultKeyPrefix  = "foodable:ratelimit"
	defaultOpTimeout  = 200 * time.Millisecond
	breakerName       = "ratelimit-redis"
	breakerMaxFails   = 5
	breakerOpenPeriod = 30 * time.Second
)

// RedisOptions tunes a RedisCounter. Zero values select the defaults.
type RedisOptions struct {
	// KeyPrefix separates limiters that share one Redis database.
	KeyPrefix string
	// OpTimeout bounds every Redis round trip.
	OpTimeout time.Duration
	// BreakerTimeout is how long the breaker stays open before probing Redis.
	BreakerTimeout time.Duration
}

// RedisCounter keeps fixed-window counts in Redis. When Redis fails, or the
// circuit breaker is open, it serves the same calls from an in-memory
// counter so requests are still limited per replica.
type RedisCounter struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  logging.Logger
	prefix  string
	timeout time.Duration

	mu       sync.RWMutex
	window   time.Duration
	fallback httprate.LimitCounter
}

var _ httprate.LimitCounter = (*RedisCounter)(nil)

func NewRedisCounter(client *redis.Client, logger logging.Logger, opts RedisOptions) *RedisCounter {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = breakerOpenPeriod
	}

	c := &RedisCounter{
		client:   client,
		logger:   logger,
		prefix:   opts.KeyPrefix,
		timeout:  opts.OpTimeout,
		window:   time.Minute,
		fallback: httprate.NewLocalLimitCounter(time.Minute),
	}
	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    breakerName + ":" + opts.KeyPrefix,
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "rate limit store breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Config is called by httprate with the limiter settings.
func (c *RedisCounter) Config(requestLimit int, windowLength time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = windowLength
	c.fallback = httprate.NewLocalLimitCounter(windowLength)
	c.fallback.Config(requestLimit, windowLength)
}

func (c *RedisCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *RedisCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	window := c.windowLength()
	_, err := c.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		k := c.windowKey(key, currentWindow)
		_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.IncrBy(ctx, k, int64(amount))
			pipe.Expire(ctx, k, 3*window)
			return nil
		})
		return nil, err
	})
	if err != nil {
		c.onFallback("increment", err)
		return c.fallbackCounter().IncrementBy(key, currentWindow, amount)
	}
	return nil
}

func (c *RedisCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		vals, err := c.client.MGet(ctx, c.windowKey(key, currentWindow), c.windowKey(key, previousWindow)).Result()
		if err != nil {
			return nil, err
		}
		counts := make([]int, 2)
		for i, v := range vals {
			n, err := parseCount(v)
			if err != nil {
				return nil, err
			}
			counts[i] = n
		}
		return counts, nil
	})
	if err != nil {
		c.onFallback("get", err)
		return c.fallbackCounter().Get(key, currentWindow, previousWindow)
	}
	counts := res.([]int)
	return counts[0], counts[1], nil
}

// Ping checks that Redis is reachable.
func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCounter) windowKey(key string, window time.Time) string {
	return fmt.Sprintf("%s:%s:%d", c.prefix, key, window.Unix())
}

func (c *RedisCounter) windowLength() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window
}

func (c *RedisCounter) fallbackCounter() httprate.LimitCounter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

func (c *RedisCounter) onFallback(op string, err error) {
	metrics.RecordRateLimitFallback()
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return
	}
	c.logger.Warn(context.Background(), "rate limit store unavailable, using memory", "op", op, "error", err)
}

func parseCount(v any) (int, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("bad counter value %q: %w", s, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unexpected counter type %T", v)
}
