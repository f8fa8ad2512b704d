package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/config"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
)

// processingMarker is the value stored while a checkout is still running.
// Anything else under the key is a serialized result ready for replay.
const processingMarker = "PROCESSING"

// AcquireState tells the caller what the idempotency key said.
type AcquireState int

const (
	// StateAcquired means this caller owns the key and must run the checkout.
	StateAcquired AcquireState = iota
	// StateInFlight means another request with the same key is still running.
	StateInFlight
	// StateReplayed means the checkout already finished; the cached result
	// is returned as-is.
	StateReplayed
)

type Client struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewClient(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	log.Info("REDIS", "Connecting to Redis at "+cfg.Addr)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("REDIS", "Redis connection established")
	return &Client{rdb: rdb, log: log}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func idempotencyKey(key string) string {
	return "checkout:idem:" + key
}

// Acquire claims an idempotency key with SET NX. The processing marker
// carries a short TTL so a crashed worker cannot wedge the key forever.
func (c *Client) Acquire(ctx context.Context, key string, processingTTL time.Duration) (AcquireState, []byte, error) {
	ok, err := c.rdb.SetNX(ctx, idempotencyKey(key), processingMarker, processingTTL).Result()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to acquire idempotency key: %w", err)
	}
	if ok {
		c.log.LogProcess("IDEMPOTENCY", "Acquired key "+key)
		return StateAcquired, nil, nil
	}

	val, err := c.rdb.Get(ctx, idempotencyKey(key)).Bytes()
	if err == goredis.Nil {
		// Marker expired between SETNX and GET. Treat as in flight and let
		// the caller retry.
		return StateInFlight, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if string(val) == processingMarker {
		c.log.LogProcess("IDEMPOTENCY", "Key "+key+" still in flight")
		return StateInFlight, nil, nil
	}

	c.log.LogProcess("IDEMPOTENCY", "Replaying cached result for key "+key)
	return StateReplayed, val, nil
}

// StoreResult replaces the processing marker with the serialized checkout
// result so later retries replay instead of re-executing.
func (c *Client) StoreResult(ctx context.Context, key string, result []byte, resultTTL time.Duration) error {
	if err := c.rdb.Set(ctx, idempotencyKey(key), result, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to store checkout result: %w", err)
	}
	return nil
}

// Release drops the processing marker after a failed checkout so the client
// can retry with the same key.
func (c *Client) Release(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// CacheGet reads a serialized value from the read cache. A miss and a Redis
// outage look the same to the caller; reads must fall through to the store.
func (c *Client) CacheGet(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, "cache:"+key).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("REDIS", "Cache read failed for "+key+": "+err.Error())
		return nil, false
	}
	return val, true
}

// CacheSet writes to the read cache, best effort.
func (c *Client) CacheSet(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := c.rdb.Set(ctx, "cache:"+key, val, ttl).Err(); err != nil {
		c.log.Warn("REDIS", "Cache write failed for "+key+": "+err.Error())
	}
}

// CacheDel invalidates a cache entry after a write, best effort.
func (c *Client) CacheDel(ctx context.Context, keys ...string) {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = "cache:" + k
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		c.log.Warn("REDIS", "Cache invalidation failed: "+err.Error())
	}
}
