// Package cache keeps short-lived copies of tracking snapshots. Cache
// failures are logged and treated as misses; the database stays the source
// of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Version is the invalidation generation of a key, read alongside a miss.
// Set only stores a snapshot while the key is still at that generation, so
// a reader that loaded the order before a status change cannot put the old
// snapshot back after the writer invalidated it.
type Version int64

// TrackingCache stores tracking snapshots by order id and tracking number.
type TrackingCache interface {
	Get(ctx context.Context, key string) (*model.TrackingSnapshot, Version, bool)
	Set(ctx context.Context, key string, version Version, snapshot *model.TrackingSnapshot)
	Invalidate(ctx context.Context, keys ...string)
}

// generationTTL outlives any in-flight lookup by a wide margin.
const generationTTL = time.Hour

// setIfCurrent stores ARGV[2] under KEYS[1] for ARGV[3] ms unless KEYS[2],
// the generation counter, has moved past ARGV[1].
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func generationKey(key string) string {
	return key + ":gen"
}

// OrderKey is the cache key for a lookup by order id.
func OrderKey(orderID string) string {
	return "storefront:tracking:order:" + orderID
}

// TrackingNumberKey is the cache key for a lookup by tracking number.
func TrackingNumberKey(trackingNumber string) string {
	return "storefront:tracking:number:" + trackingNumber
}

// KeysFor returns every key a snapshot of order may be stored under.
func KeysFor(order *model.Order) []string {
	keys := []string{OrderKey(order.ID.String())}
	if order.TrackingNumber != nil && *order.TrackingNumber != "" {
		keys = append(keys, TrackingNumberKey(*order.TrackingNumber))
	}
	return keys
}

type redisTrackingCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisTrackingCache creates a cache backed by client.
func NewRedisTrackingCache(client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) TrackingCache {
	return &redisTrackingCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "tracking-cache").Logger(),
	}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func (c *redisTrackingCache) Get(ctx context.Context, key string) (*model.TrackingSnapshot, Version, bool) {
	values, err := c.client.MGet(ctx, key, generationKey(key)).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, 0, false
	}

	var version Version
	if raw, ok := values[1].(string); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("unreadable cache generation")
			return nil, 0, false
		}
		version = Version(n)
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, version, false
	}

	var snapshot model.TrackingSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return nil, version, false
	}
	return &snapshot, version, true
}

func (c *redisTrackingCache) Set(ctx context.Context, key string, version Version, snapshot *model.TrackingSnapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode snapshot")
		return
	}

	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{key, generationKey(key)},
		strconv.FormatInt(int64(version), 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return
	}
	if stored == 0 {
		c.logger.Debug().Str("key", key).Msg("snapshot invalidated while loading, not cached")
	}
}

// Invalidate drops the snapshots and bumps their generations in one
// transaction.
func (c *redisTrackingCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

type nopTrackingCache struct{}

// NewNop returns a cache that never stores anything.
func NewNop() TrackingCache {
	return nopTrackingCache{}
}

func (nopTrackingCache) Get(context.Context, string) (*model.TrackingSnapshot, Version, bool) {
	return nil, 0, false
}

func (nopTrackingCache) Set(context.Context, string, Version, *model.TrackingSnapshot) {}

func (nopTrackingCache) Invalidate(context.Context, ...string) {}
