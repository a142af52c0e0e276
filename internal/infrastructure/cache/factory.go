package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// CatalogCacheFactory creates catalog caches based on configuration
type CatalogCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           Config
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CatalogCacheFactoryOption configures the factory
type CatalogCacheFactoryOption func(*CatalogCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CatalogCacheFactoryOption {
	return func(f *CatalogCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) CatalogCacheFactoryOption {
	return func(f *CatalogCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithConfig sets the cache TTL configuration
func WithConfig(cfg Config) CatalogCacheFactoryOption {
	return func(f *CatalogCacheFactory) {
		f.cacheConfig = cfg
	}
}

// NewCatalogCacheFactory creates a new factory
func NewCatalogCacheFactory(cfg config.RedisConfig, opts ...CatalogCacheFactoryOption) *CatalogCacheFactory {
	f := &CatalogCacheFactory{
		redisConfig:           cfg,
		cacheConfig:           DefaultConfig(),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache creates a catalog cache. When Redis is enabled it is tried
// first; an in-memory cache backs it up unless fallback is disabled.
func (f *CatalogCacheFactory) CreateCache() (CatalogCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory catalog cache")
		return NewInMemoryCatalogCache(f.cacheConfig), nil
	}

	cache, err := NewRedisCatalogCache(f.redisConfig,
		WithCacheConfig(f.cacheConfig),
		WithCacheLogger(f.logger),
	)
	if err == nil {
		f.logger.Info("using Redis catalog cache", zap.String("addr", f.redisConfig.Addr()))
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for catalog cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory catalog cache. "+
		"Cached entries will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryCatalogCache(f.cacheConfig), nil
}
