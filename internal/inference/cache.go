package inference

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/leafscan/internal/logging"
)

// Cache abstracts the Redis operations used by CachedClient to make testing easier.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisCache is a concrete implementation backed by go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a new Redis-backed cache adapter.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set writes a value to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a cached value from Redis. A miss is reported as redis.Nil.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// defaultCacheTimeout bounds each cache round trip so a hung cache cannot
// hold the screen in loading before the inference call is sent.
const defaultCacheTimeout = 250 * time.Millisecond

// CachedClient serves repeated diagnoses of the same photo from the cache.
// Only successful results are stored and a broken cache never fails a call.
// Each cache operation is tried once.
type CachedClient struct {
	next    Client
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewCachedClient wraps next with cache lookups.
func NewCachedClient(next Client, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedClient {
	return &CachedClient{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		timeout: defaultCacheTimeout,
		logger:  logger.Named("inference_cache"),
	}
}

// Infer returns a cached result for req when there is one, and otherwise
// delegates to the wrapped client.
func (c *CachedClient) Infer(ctx context.Context, req Request) (*Result, error) {
	dispatch := DispatchFromContext(ctx)
	key := cacheKey(req)

	cached, err := c.get(ctx, dispatch, key)
	switch {
	case err == nil:
		var result Result
		decodeErr := json.Unmarshal([]byte(cached), &result)
		if decodeErr == nil {
			logging.WithOperation(c.logger, "cache.hit", dispatch).Debug("serving cached diagnosis")
			return &result, nil
		}
		logging.WithOperation(c.logger, "cache.get", dispatch).Warn("failed to decode cached result", zap.Error(decodeErr))
	case !errors.Is(err, redis.Nil):
		logging.WithOperation(c.logger, "cache.get", dispatch).Warn("failed to read cache", zap.Error(err))
	}

	result, err := c.next.Infer(ctx, req)
	if err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		logging.WithOperation(c.logger, "cache.set", dispatch).Warn("failed to serialize result", zap.Error(err))
		return result, nil
	}
	if err := c.set(ctx, dispatch, key, string(serialized)); err != nil {
		logging.WithOperation(c.logger, "cache.set", dispatch).Warn("failed to cache result", zap.Error(err))
	}
	return result, nil
}

func (c *CachedClient) get(ctx context.Context, dispatch logging.Dispatch, key string) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	value, err := c.cache.Get(opCtx, key)
	return value, logging.NewOperationError("cache.get", dispatch, err)
}

func (c *CachedClient) set(ctx context.Context, dispatch logging.Dispatch, key, value string) error {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return logging.NewOperationError("cache.set", dispatch, c.cache.Set(opCtx, key, value, c.ttl))
}

func cacheKey(req Request) string {
	sum := sha1.Sum([]byte(req.Image))
	overlay := "0"
	if req.IncludeOverlay {
		overlay = "1"
	}
	return "diagnosis:" + hex.EncodeToString(sum[:]) + ":" + overlay
}
