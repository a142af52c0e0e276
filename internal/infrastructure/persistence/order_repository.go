package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID, with its lines loaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByNumber finds an order by its human-facing number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("number = ?", number).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByUser finds a user's orders, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	q := r.db.WithContext(ctx).Model(&order.Order{}).
		Preload("Items").
		Where("user_id = ?", userID)
	q = applySort(q, filter, OrderSortFields, "created_at DESC")
	q = applyPagination(q, filter)

	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds all orders matching the query and filter
func (r *GormOrderRepository) FindAll(ctx context.Context, query order.Query, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	q := r.applyQuery(r.db.WithContext(ctx).Model(&order.Order{}).Preload("Items"), query, filter)
	q = applySort(q, filter, OrderSortFields, "created_at DESC")
	q = applyPagination(q, filter)

	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the query and filter
func (r *GormOrderRepository) Count(ctx context.Context, query order.Query, filter shared.Filter) (int64, error) {
	var count int64
	q := r.applyQuery(r.db.WithContext(ctx).Model(&order.Order{}), query, filter)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Revenue sums the totals of all orders that have been paid for
func (r *GormOrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("status IN ?", []order.Status{order.StatusPaid, order.StatusShipped, order.StatusDelivered}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Save creates or updates an order and its lines
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// Delete deletes an order
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&order.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyQuery applies the order query conditions
func (r *GormOrderRepository) applyQuery(q *gorm.DB, query order.Query, filter shared.Filter) *gorm.DB {
	if query.UserID != nil {
		q = q.Where("user_id = ?", *query.UserID)
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	search := query.Search
	if search == "" {
		search = filter.Search
	}
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("number ILIKE ? OR shipping_name ILIKE ?", pattern, pattern)
	}
	return q
}

// Ensure GormOrderRepository implements Repository
var _ order.Repository = (*GormOrderRepository)(nil)
