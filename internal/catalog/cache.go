package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"biteme-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	generationKey    = "catalog:gen"
	restaurantPrefix = "catalog:restaurant:"
	listPrefix       = "catalog:list:"
)

// Generation pins the cache state a read started under. Entries are keyed
// by generation, so a fill that races an invalidation lands under a
// generation nobody reads anymore.
type Generation int64

// NoGeneration disables reads and fills, e.g. while Redis is unreachable.
const NoGeneration Generation = -1

// Cache is a best-effort read-through layer. Failures are logged and
// treated as misses; they never fail a request.
type Cache interface {
	Generation(ctx context.Context) Generation
	GetRestaurant(ctx context.Context, gen Generation, id string) (*Restaurant, bool)
	SetRestaurant(ctx context.Context, gen Generation, r *Restaurant)
	GetList(ctx context.Context, gen Generation, filter ListFilter) ([]*Restaurant, bool)
	SetList(ctx context.Context, gen Generation, filter ListFilter, list []*Restaurant)
	Invalidate(ctx context.Context, restaurantID string)
}

type redisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Generation(ctx context.Context) Generation {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		cacheLog(ctx, "Generation").Warn("cache generation read failed", zap.Error(err))
		return NoGeneration
	}
	return Generation(gen)
}

func (c *redisCache) GetRestaurant(ctx context.Context, gen Generation, id string) (*Restaurant, bool) {
	var r Restaurant
	if !c.get(ctx, gen, restaurantKey(gen, id), &r) {
		return nil, false
	}
	return &r, true
}

func (c *redisCache) SetRestaurant(ctx context.Context, gen Generation, r *Restaurant) {
	c.set(ctx, gen, restaurantKey(gen, r.ID), r)
}

func (c *redisCache) GetList(ctx context.Context, gen Generation, filter ListFilter) ([]*Restaurant, bool) {
	var list []*Restaurant
	if !c.get(ctx, gen, listKey(gen, filter), &list) {
		return nil, false
	}
	return list, true
}

func (c *redisCache) SetList(ctx context.Context, gen Generation, filter ListFilter, list []*Restaurant) {
	c.set(ctx, gen, listKey(gen, filter), list)
}

// Invalidate moves every key to a new generation. Entries of older
// generations expire on their own.
func (c *redisCache) Invalidate(ctx context.Context, restaurantID string) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		cacheLog(ctx, "Invalidate").Warn("cache invalidation failed",
			zap.String("restaurant_id", restaurantID),
			zap.Error(err),
		)
	}
}

func restaurantKey(gen Generation, id string) string {
	return restaurantPrefix + strconv.FormatInt(int64(gen), 10) + ":" + id
}

func listKey(gen Generation, f ListFilter) string {
	return listPrefix + strconv.FormatInt(int64(gen), 10) + ":" + f.cacheKey()
}

func (c *redisCache) get(ctx context.Context, gen Generation, key string, dst any) bool {
	if gen < 0 {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		cacheLog(ctx, "get").Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cacheLog(ctx, "get").Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *redisCache) set(ctx context.Context, gen Generation, key string, v any) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		cacheLog(ctx, "set").Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheLog(ctx context.Context, method string) *zap.Logger {
	return logger.FromCtx(ctx).With(
		zap.String("layer", "cache"),
		zap.String("method", method),
	)
}

func (f ListFilter) cacheKey() string {
	cuisine, rating, veg := "*", "*", "*"
	if f.Cuisine != nil {
		cuisine = string(*f.Cuisine)
	}
	if f.MinRating != nil {
		rating = strconv.FormatFloat(*f.MinRating, 'f', -1, 64)
	}
	if f.Vegetarian != nil {
		veg = strconv.FormatBool(*f.Vegetarian)
	}
	return fmt.Sprintf("c=%s|r=%s|v=%s", cuisine, rating, veg)
}

type noopCache struct{}

// NewNoopCache is used when REDIS_ADDR is unset.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Generation(context.Context) Generation { return NoGeneration }

func (noopCache) GetRestaurant(context.Context, Generation, string) (*Restaurant, bool) {
	return nil, false
}

func (noopCache) SetRestaurant(context.Context, Generation, *Restaurant) {}

func (noopCache) GetList(context.Context, Generation, ListFilter) ([]*Restaurant, bool) {
	return nil, false
}

func (noopCache) SetList(context.Context, Generation, ListFilter, []*Restaurant) {}

func (noopCache) Invalidate(context.Context, string) {}
