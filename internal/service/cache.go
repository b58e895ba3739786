package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/printmarket/internal/logging"
	"github.com/flicky/printmarket/pkg/model"
)

const productCacheTTL = 60 * time.Second

// productCache is a read-through cache of single products. A nil client
// disables it; redis failures are treated as misses.
type productCache struct {
	client *redis.Client
}

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }

func (c productCache) get(ctx context.Context, id uuid.UUID) (*model.Product, bool) {
	if c.client == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, productCacheKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p model.Product
	if json.Unmarshal(cached, &p) != nil {
		return nil, false
	}
	return &p, true
}

func (c productCache) set(ctx context.Context, p *model.Product) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productCacheKey(p.ID), data, productCacheTTL).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache product", "product_id", p.ID, "error", err)
	}
}

func (c productCache) invalidate(ctx context.Context, ids ...uuid.UUID) {
	if c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logging.FromContext(ctx).Warn("invalidate product cache", "keys", keys, "error", err)
	}
}
