package admin

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trader"
)

// DashboardResponse is the admin overview payload
type DashboardResponse struct {
	Users          int64           `json:"users"`
	Products       int64           `json:"products"`
	Orders         int64           `json:"orders"`
	PendingOrders  int64           `json:"pending_orders"`
	Revenue        decimal.Decimal `json:"revenue"`
	PendingReviews int64           `json:"pending_reviews"`
	PendingTraders int64           `json:"pending_traders"`
}

// DashboardService aggregates storefront counters for the admin overview
type DashboardService struct {
	users    UserCounter
	products ProductCounter
	orders   OrderStats
	reviews  ReviewCounter
	traders  TraderCounter
	logger   *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	users UserCounter,
	products ProductCounter,
	orders OrderStats,
	reviews ReviewCounter,
	traders TraderCounter,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		users:    users,
		products: products,
		orders:   orders,
		reviews:  reviews,
		traders:  traders,
		logger:   logger,
	}
}

// Dashboard returns the current totals and moderation backlogs
func (s *DashboardService) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	resp := &DashboardResponse{}

	var err error
	if resp.Users, err = s.users.Count(ctx, identity.UserQuery{}, shared.Filter{}); err != nil {
		return nil, err
	}
	if resp.Products, err = s.products.Count(ctx, catalog.ProductQuery{}, shared.Filter{}); err != nil {
		return nil, err
	}
	if resp.Orders, err = s.orders.Count(ctx, order.Query{}, shared.Filter{}); err != nil {
		return nil, err
	}

	pending := order.StatusPending
	if resp.PendingOrders, err = s.orders.Count(ctx, order.Query{Status: &pending}, shared.Filter{}); err != nil {
		return nil, err
	}
	if resp.Revenue, err = s.orders.Revenue(ctx); err != nil {
		return nil, err
	}
	if resp.PendingReviews, err = s.reviews.CountByStatus(ctx, catalog.ReviewStatusPending); err != nil {
		return nil, err
	}

	pendingTrader := trader.StatusPending
	if resp.PendingTraders, err = s.traders.Count(ctx, trader.Query{Status: &pendingTrader}, shared.Filter{}); err != nil {
		return nil, err
	}

	return resp, nil
}
