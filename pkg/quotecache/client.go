// Package quotecache is an optional Redis-backed read cache for the
// per-symbol company resources (profile and forecast graph), which are
// static for a trading day and fetched once per symbol. The cache is
// strictly best-effort: every failure falls through to the backend.
package quotecache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/metrics"
)

// ErrCircuitOpen rejects cache operations while Redis keeps failing.
var ErrCircuitOpen = errors.New("cache circuit breaker is open")

// openAfterFailures is how many consecutive failures trip the breaker.
const openAfterFailures = 5

// Client wraps a Redis connection with timeouts, write retries and a
// small circuit breaker so a dead Redis cannot slow the read path down.
type Client struct {
	rdb *redis.Client
	// Circuit breaker state
	failureCount int64
	state        int32 // 0: closed, 1: open
}

// New constructs a Client from a Redis URL with tuned pool settings.
func New(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.PoolSize = 10
	opt.MaxRetries = 2
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second
	return &Client{rdb: redis.NewClient(opt)}, nil
}

// GetJSON loads key into out. The second return is false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	if atomic.LoadInt32(&c.state) == 1 {
		return false, ErrCircuitOpen
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		c.track(nil)
		return false, nil
	}
	if err != nil {
		c.track(err)
		metrics.CacheErrors.WithLabelValues("get").Inc()
		return false, err
	}
	c.track(nil)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		// A corrupt entry counts as a miss; the caller refetches and overwrites it.
		metrics.CacheErrors.WithLabelValues("decode").Inc()
		return false, nil
	}
	return true, nil
}

// SetJSON stores v under key with a TTL, retrying transient failures
// with exponential backoff.
func (c *Client) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if atomic.LoadInt32(&c.state) == 1 {
		return ErrCircuitOpen
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	op := func() error {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		err := c.rdb.Set(ctx, key, data, ttl).Err()
		c.track(err)
		return err
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// track updates the breaker state after an operation.
func (c *Client) track(err error) {
	if err == nil {
		atomic.StoreInt64(&c.failureCount, 0)
		atomic.StoreInt32(&c.state, 0)
		return
	}
	if atomic.AddInt64(&c.failureCount, 1) >= openAfterFailures {
		if atomic.CompareAndSwapInt32(&c.state, 0, 1) {
			logger.Log.Warn("cache circuit breaker opened", zap.Error(err))
		}
	}
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
