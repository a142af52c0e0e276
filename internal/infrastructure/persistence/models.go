package persistence

import (
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/trader"
)

// Models returns every persisted aggregate in dependency order
func Models() []any {
	return []any{
		&identity.User{},
		&trader.Trader{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.Review{},
		&cart.Cart{},
		&cart.Item{},
		&order.Order{},
		&order.Item{},
	}
}

// AutoMigrate creates or updates the schema for every registered model.
// Production deployments run versioned SQL migrations instead; this is
// used by tests and local development.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
