package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics constructor receives no meter
var ErrMeterNil = errors.New("NewStoreMetrics: meter cannot be nil")

// StoreMetrics tracks storefront business activity: orders, checkout
// outcomes, cart synchronization, and review submissions.
type StoreMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	ordersPlacedTotal     *Counter
	orderAmountTotal      *Counter
	checkoutFailuresTotal *Counter
	cartSyncsTotal        *Counter
	reviewsSubmittedTotal *Counter
}

// StoreMetricsConfig holds configuration for store metrics
type StoreMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewStoreMetrics creates a new StoreMetrics instance
func NewStoreMetrics(cfg StoreMetricsConfig) (*StoreMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &StoreMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	sm.ordersPlacedTotal, err = NewCounter(
		cfg.Meter,
		"store_orders_placed_total",
		"Total number of orders placed",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	sm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"store_order_amount_total",
		"Total order amount in minor currency units",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	sm.checkoutFailuresTotal, err = NewCounter(
		cfg.Meter,
		"store_checkout_failures_total",
		"Total number of rejected checkout attempts",
		"{attempts}",
	)
	if err != nil {
		return nil, err
	}

	sm.cartSyncsTotal, err = NewCounter(
		cfg.Meter,
		"store_cart_syncs_total",
		"Total number of cart synchronization requests",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	sm.reviewsSubmittedTotal, err = NewCounter(
		cfg.Meter,
		"store_reviews_submitted_total",
		"Total number of product reviews submitted",
		"{reviews}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordOrderPlaced records a placed order and its amount
func (sm *StoreMetrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal) {
	sm.ordersPlacedTotal.Inc(ctx)
	cents := total.Mul(decimal.NewFromInt(100)).IntPart()
	sm.orderAmountTotal.Add(ctx, cents)
}

// RecordCheckoutFailure records a rejected checkout attempt
func (sm *StoreMetrics) RecordCheckoutFailure(ctx context.Context, reason string) {
	sm.checkoutFailuresTotal.Inc(ctx, attribute.String("reason", reason))
}

// RecordCartSync records a cart synchronization request
func (sm *StoreMetrics) RecordCartSync(ctx context.Context) {
	sm.cartSyncsTotal.Inc(ctx)
}

// RecordReviewSubmitted records a submitted product review
func (sm *StoreMetrics) RecordReviewSubmitted(ctx context.Context, rating int) {
	sm.reviewsSubmittedTotal.Inc(ctx, attribute.Int("rating", rating))
}
