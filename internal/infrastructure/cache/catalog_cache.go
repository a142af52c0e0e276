package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ErrCacheMiss is returned when a key is absent from the cache
var ErrCacheMiss = errors.New("cache miss")

// CatalogCache holds hot catalog reads so product and category pages do
// not hit the database on every request. Implementations must treat the
// cache as advisory: a miss or error is never fatal to the caller.
type CatalogCache interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	SetProduct(ctx context.Context, product *catalog.Product) error
	InvalidateProduct(ctx context.Context, id uuid.UUID) error

	GetCategories(ctx context.Context) ([]catalog.Category, error)
	SetCategories(ctx context.Context, categories []catalog.Category) error
	InvalidateCategories(ctx context.Context) error

	Close() error
}

// Config holds cache tuning knobs
type Config struct {
	ProductTTL  time.Duration
	CategoryTTL time.Duration
}

// DefaultConfig returns the default cache TTLs
func DefaultConfig() Config {
	return Config{
		ProductTTL:  5 * time.Minute,
		CategoryTTL: 15 * time.Minute,
	}
}
