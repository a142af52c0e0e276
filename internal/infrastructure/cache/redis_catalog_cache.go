package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const categoriesKey = "catalog:categories"

// RedisCatalogCache implements CatalogCache backed by Redis
type RedisCatalogCache struct {
	client     *redis.Client
	ownsClient bool
	config     Config
	logger     *zap.Logger
}

// RedisCatalogCacheOption configures the cache
type RedisCatalogCacheOption func(*RedisCatalogCache)

// WithCacheConfig sets the cache TTL configuration
func WithCacheConfig(cfg Config) RedisCatalogCacheOption {
	return func(c *RedisCatalogCache) {
		c.config = cfg
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisCatalogCacheOption {
	return func(c *RedisCatalogCache) {
		c.logger = logger
	}
}

// NewRedisCatalogCache creates a Redis-backed catalog cache, verifying the
// connection before returning
func NewRedisCatalogCache(cfg config.RedisConfig, opts ...RedisCatalogCacheOption) (*RedisCatalogCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisCatalogCache{
		client:     client,
		ownsClient: true,
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// NewRedisCatalogCacheWithClient creates a cache on an existing Redis client.
// The caller retains ownership of the client.
func NewRedisCatalogCacheWithClient(client *redis.Client, opts ...RedisCatalogCacheOption) *RedisCatalogCache {
	cache := &RedisCatalogCache{
		client:     client,
		ownsClient: false,
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

func productKey(id uuid.UUID) string {
	return "catalog:product:" + id.String()
}

// GetProduct fetches a cached product
func (c *RedisCatalogCache) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var product catalog.Product
	if err := json.Unmarshal(data, &product); err != nil {
		c.logger.Warn("discarding corrupt cached product", zap.String("id", id.String()), zap.Error(err))
		_ = c.client.Del(ctx, productKey(id)).Err()
		return nil, ErrCacheMiss
	}
	return &product, nil
}

// SetProduct stores a product with the configured TTL
func (c *RedisCatalogCache) SetProduct(ctx context.Context, product *catalog.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(product.ID), data, c.config.ProductTTL).Err()
}

// InvalidateProduct drops a product from the cache
func (c *RedisCatalogCache) InvalidateProduct(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, productKey(id)).Err()
}

// GetCategories fetches the cached category list
func (c *RedisCatalogCache) GetCategories(ctx context.Context) ([]catalog.Category, error) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var categories []catalog.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		c.logger.Warn("discarding corrupt cached categories", zap.Error(err))
		_ = c.client.Del(ctx, categoriesKey).Err()
		return nil, ErrCacheMiss
	}
	return categories, nil
}

// SetCategories stores the full category list with the configured TTL
func (c *RedisCatalogCache) SetCategories(ctx context.Context, categories []catalog.Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoriesKey, data, c.config.CategoryTTL).Err()
}

// InvalidateCategories drops the category list from the cache
func (c *RedisCatalogCache) InvalidateCategories(ctx context.Context) error {
	return c.client.Del(ctx, categoriesKey).Err()
}

// Close releases the Redis client if this cache owns it
func (c *RedisCatalogCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisCatalogCache implements CatalogCache
var _ CatalogCache = (*RedisCatalogCache)(nil)
