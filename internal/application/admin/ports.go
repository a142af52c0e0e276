package admin

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trader"
)

// The dashboard only reads aggregates, so it declares the narrow slices
// of the repositories it needs. The gorm repositories satisfy all of them.

// UserCounter counts users matching a query
type UserCounter interface {
	Count(ctx context.Context, query identity.UserQuery, filter shared.Filter) (int64, error)
}

// ProductCounter counts products matching a query
type ProductCounter interface {
	Count(ctx context.Context, query catalog.ProductQuery, filter shared.Filter) (int64, error)
}

// OrderStats counts orders and sums settled revenue
type OrderStats interface {
	Count(ctx context.Context, query order.Query, filter shared.Filter) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// ReviewCounter counts reviews in a moderation state
type ReviewCounter interface {
	CountByStatus(ctx context.Context, status catalog.ReviewStatus) (int64, error)
}

// TraderCounter counts traders matching a query
type TraderCounter interface {
	Count(ctx context.Context, query trader.Query, filter shared.Filter) (int64, error)
}
