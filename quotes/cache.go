package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache is a Redis cache-aside decorator around another Provider.
type Cache struct {
	next   Provider
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache wraps next with a Redis cache. A non-positive ttl disables caching
// and returns next unchanged.
func NewCache(next Provider, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) Provider {
	if ttl <= 0 || rdb == nil {
		return next
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("stock:%s:quote", symbol)
}

func (c *Cache) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	cached, err := c.rdb.Get(ctx, cacheKey(symbol)).Result()
	if err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(cached), &q); err == nil {
			return q, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("Quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}

	q, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	payload, err := json.Marshal(q)
	if err == nil {
		err = c.rdb.Set(ctx, cacheKey(symbol), payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("Quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return q, nil
}
