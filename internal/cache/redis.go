package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"locdecoder/internal/core/model"
)

const (
	latestKeyPrefix = "position:latest:"
	DefaultTTL      = 24 * time.Hour
	maxSetAttempts  = 3
)

// ErrCacheMiss is returned when the cache is disabled or holds no entry.
var ErrCacheMiss = errors.New("cache miss")

var errStaleEntry = errors.New("cached position is newer")

// PositionCache keeps the most recent position of every device in Redis.
// A cache built without a reachable server is disabled and every call is a
// no-op or a miss.
type PositionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPositionCache sets up a Redis connection if redisURL is provided
func NewPositionCache(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) *PositionCache {
	c := &PositionCache{ttl: ttl, logger: logger}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}

	if redisURL == "" {
		logger.Info("Redis URL not provided, caching disabled")
		return c
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("Failed to parse Redis URL, caching disabled", zap.Error(err))
		return c
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, caching disabled", zap.Error(err))
		_ = client.Close()
		return c
	}

	c.client = client
	logger.Info("Redis cache initialized", zap.String("addr", opt.Addr))
	return c
}

// Enabled reports whether the cache talks to a Redis server.
func (c *PositionCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Close closes the Redis connection
func (c *PositionCache) Close() {
	if c.Enabled() {
		if err := c.client.Close(); err != nil {
			c.logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
}

func latestKey(deviceID string) string {
	return latestKeyPrefix + deviceID
}

// SetLatest stores position as the newest one for its device. An entry with
// a later Timestamp is left in place, so replayed or late packets never
// replace a newer fix.
func (c *PositionCache) SetLatest(ctx context.Context, position *model.Position) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	key := latestKey(position.DeviceID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var cached model.Position
			if json.Unmarshal(current, &cached) == nil && position.Timestamp.Before(cached.Timestamp) {
				return errStaleEntry
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxSetAttempts; i++ {
		err = c.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errStaleEntry):
			c.logger.Debug("Cached position is newer, keeping it",
				zap.String("deviceId", position.DeviceID),
				zap.Time("timestamp", position.Timestamp))
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return fmt.Errorf("redis set: %w", err)
		}
	}
	return fmt.Errorf("redis set: %w", err)
}

// GetLatest returns the cached newest position for deviceID.
func (c *PositionCache) GetLatest(ctx context.Context, deviceID string) (*model.Position, error) {
	if !c.Enabled() {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Get(ctx, latestKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var position model.Position
	if err := json.Unmarshal(data, &position); err != nil {
		return nil, fmt.Errorf("unmarshal position: %w", err)
	}
	return &position, nil
}
