package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
)

type cachedProduct struct {
	product   catalog.Product
	expiresAt time.Time
}

type cachedCategories struct {
	categories []catalog.Category
	expiresAt  time.Time
}

// InMemoryCatalogCache implements CatalogCache with a process-local map.
// Suitable for single-instance deployments and testing; entries are not
// shared across processes.
type InMemoryCatalogCache struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]cachedProduct
	categories *cachedCategories
	config     Config
	now        func() time.Time
}

// NewInMemoryCatalogCache creates an in-memory catalog cache
func NewInMemoryCatalogCache(cfg Config) *InMemoryCatalogCache {
	return &InMemoryCatalogCache{
		products: make(map[uuid.UUID]cachedProduct),
		config:   cfg,
		now:      time.Now,
	}
}

// GetProduct fetches a cached product
func (c *InMemoryCatalogCache) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	c.mu.RLock()
	entry, ok := c.products[id]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.products, id)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	product := entry.product
	return &product, nil
}

// SetProduct stores a product with the configured TTL
func (c *InMemoryCatalogCache) SetProduct(_ context.Context, product *catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = cachedProduct{
		product:   *product,
		expiresAt: c.now().Add(c.config.ProductTTL),
	}
	return nil
}

// InvalidateProduct drops a product from the cache
func (c *InMemoryCatalogCache) InvalidateProduct(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
	return nil
}

// GetCategories fetches the cached category list
func (c *InMemoryCatalogCache) GetCategories(_ context.Context) ([]catalog.Category, error) {
	c.mu.RLock()
	entry := c.categories
	c.mu.RUnlock()

	if entry == nil || c.now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}

	out := make([]catalog.Category, len(entry.categories))
	copy(out, entry.categories)
	return out, nil
}

// SetCategories stores the full category list with the configured TTL
func (c *InMemoryCatalogCache) SetCategories(_ context.Context, categories []catalog.Category) error {
	stored := make([]catalog.Category, len(categories))
	copy(stored, categories)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = &cachedCategories{
		categories: stored,
		expiresAt:  c.now().Add(c.config.CategoryTTL),
	}
	return nil
}

// InvalidateCategories drops the category list from the cache
func (c *InMemoryCatalogCache) InvalidateCategories(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = nil
	return nil
}

// Close is a no-op for the in-memory cache
func (c *InMemoryCatalogCache) Close() error {
	return nil
}

// Ensure InMemoryCatalogCache implements CatalogCache
var _ CatalogCache = (*InMemoryCatalogCache)(nil)
