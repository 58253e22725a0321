package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const sharedFetchTimeout = 5 * time.Second

// CachedLookup is a read-through Redis cache in front of the catalog. Cache errors are
// logged and fall through to the catalog.
type CachedLookup struct {
	next    Lookup
	client  *redis.Client
	baseTTL time.Duration
	sfg     singleflight.Group // prevents cache stampede
}

func NewCachedLookup(next Lookup, client *redis.Client, baseTTL time.Duration) *CachedLookup {
	return &CachedLookup{
		next:    next,
		client:  client,
		baseTTL: baseTTL,
	}
}

func (c *CachedLookup) FetchProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	products, err := c.FetchProductsByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

func (c *CachedLookup) FetchProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, missing := c.getCached(ctx, ids)
	if len(missing) == 0 {
		return order(ids, found), nil
	}

	// shared by every waiter, detached from the first caller's cancellation
	v, err, _ := c.sfg.Do(groupKey(missing), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return c.next.FetchProductsByIDs(fetchCtx, missing)
	})
	if err != nil {
		return nil, err
	}

	fetched := v.([]domain.Product)
	for _, p := range fetched {
		found[p.ID] = p
	}
	go c.setCached(fetched)

	return order(ids, found), nil
}

func (c *CachedLookup) getCached(ctx context.Context, ids []int64) (map[int64]domain.Product, []int64) {
	found := make(map[int64]domain.Product, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn().Err(err).Msg("catalog cache get error")
		return found, ids
	}

	var missing []int64
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var p domain.Product
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			log.Warn().Err(err).Int64("product_id", ids[i]).Msg("unmarshal cached product failed")
			missing = append(missing, ids[i])
			continue
		}
		found[p.ID] = p
	}
	return found, missing
}

func (c *CachedLookup) setCached(products []domain.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	pipe := c.client.Pipeline()
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		jitter := time.Duration(rand.Intn(5)) * time.Minute
		pipe.Set(ctx, cacheKey(p.ID), data, c.baseTTL+jitter)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Msg("catalog cache set error")
	}
}

// Invalidate drops a product, e.g. after it was deactivated.
func (c *CachedLookup) Invalidate(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func groupKey(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func order(ids []int64, found map[int64]domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
