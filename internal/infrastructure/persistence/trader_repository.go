package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trader"
)

// GormTraderRepository implements trader.Repository using GORM
type GormTraderRepository struct {
	db *gorm.DB
}

// NewGormTraderRepository creates a new GormTraderRepository
func NewGormTraderRepository(db *gorm.DB) *GormTraderRepository {
	return &GormTraderRepository{db: db}
}

// FindByID finds a trader by ID
func (r *GormTraderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trader.Trader, error) {
	var t trader.Trader
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindByUser finds the trader profile belonging to a user
func (r *GormTraderRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*trader.Trader, error) {
	var t trader.Trader
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll finds all traders matching the query and filter
func (r *GormTraderRepository) FindAll(ctx context.Context, query trader.Query, filter shared.Filter) ([]trader.Trader, error) {
	var traders []trader.Trader
	q := r.applyQuery(r.db.WithContext(ctx).Model(&trader.Trader{}), query, filter)
	q = applySort(q, filter, TraderSortFields, "created_at DESC")
	q = applyPagination(q, filter)

	if err := q.Find(&traders).Error; err != nil {
		return nil, err
	}
	return traders, nil
}

// Count counts traders matching the query and filter
func (r *GormTraderRepository) Count(ctx context.Context, query trader.Query, filter shared.Filter) (int64, error) {
	var count int64
	q := r.applyQuery(r.db.WithContext(ctx).Model(&trader.Trader{}), query, filter)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByUser checks whether a user already has a trader profile
func (r *GormTraderRepository) ExistsByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trader.Trader{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a trader
func (r *GormTraderRepository) Save(ctx context.Context, t *trader.Trader) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Delete deletes a trader
func (r *GormTraderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&trader.Trader{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyQuery applies the trader query conditions
func (r *GormTraderRepository) applyQuery(q *gorm.DB, query trader.Query, filter shared.Filter) *gorm.DB {
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	search := query.Search
	if search == "" {
		search = filter.Search
	}
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("store_name ILIKE ? OR contact_email ILIKE ?", pattern, pattern)
	}
	return q
}

// Ensure GormTraderRepository implements Repository
var _ trader.Repository = (*GormTraderRepository)(nil)
