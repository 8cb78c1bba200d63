package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/SivanLevi100/storefront/internal/domain/catalog"
)

const (
	defaultTTL       = 10 * time.Minute
	breakerTrips     = 5
	breakerOpenFor   = 30 * time.Second
	breakerHalfOpenN = 1
)

// ProductCache stores single products in redis. Calls go through a circuit breaker so a
// failing redis is skipped quickly instead of slowing every catalog read.
type ProductCache struct {
	client  redis.Cmdable
	baseTTL time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewProductCache(client redis.Cmdable, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ProductCache{
		client:  client,
		baseTTL: ttl,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "redis-product-cache",
			MaxRequests: breakerHalfOpenN,
			Timeout:     breakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= breakerTrips
			},
			// a miss is a healthy answer
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, redis.Nil)
			},
		}),
	}
}

type cachedProduct struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (c *ProductCache) Get(ctx context.Context, id int64) (*catalog.Product, bool, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, productKey(id)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var cp cachedProduct
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, false, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &catalog.Product{
		ID:            cp.ID,
		Name:          cp.Name,
		Description:   cp.Description,
		Price:         cp.Price,
		StockQuantity: cp.StockQuantity,
		CreatedAt:     cp.CreatedAt,
		UpdatedAt:     cp.UpdatedAt,
	}, true, nil
}

// Set writes p with a jittered TTL so entries cached together do not expire together.
func (c *ProductCache) Set(ctx context.Context, p *catalog.Product) error {
	data, err := json.Marshal(cachedProduct{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, productKey(p.ID), data, c.ttl()).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *ProductCache) Delete(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *ProductCache) ttl() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(c.baseTTL/5) + 1))
	return c.baseTTL + jitter
}

func productKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}
