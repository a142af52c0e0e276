package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormReviewRepository implements catalog.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByID finds a review by its ID
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Review, error) {
	var review catalog.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// FindByProduct finds reviews for a product in the given moderation state
func (r *GormReviewRepository) FindByProduct(ctx context.Context, productID uuid.UUID, status catalog.ReviewStatus, filter shared.Filter) ([]catalog.Review, error) {
	var reviews []catalog.Review
	q := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Where("product_id = ? AND status = ?", productID, status)
	q = applySort(q, filter, ReviewSortFields, "created_at DESC")
	q = applyPagination(q, filter)

	if err := q.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// FindByUserAndProduct finds the review a user left on a product
func (r *GormReviewRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*catalog.Review, error) {
	var review catalog.Review
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// FindByStatus finds reviews in a moderation state across all products
func (r *GormReviewRepository) FindByStatus(ctx context.Context, status catalog.ReviewStatus, filter shared.Filter) ([]catalog.Review, error) {
	var reviews []catalog.Review
	q := r.db.WithContext(ctx).Model(&catalog.Review{}).
		Where("status = ?", status)
	q = applySort(q, filter, ReviewSortFields, "created_at ASC")
	q = applyPagination(q, filter)

	if err := q.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// CountByProduct counts reviews for a product in the given moderation state
func (r *GormReviewRepository) CountByProduct(ctx context.Context, productID uuid.UUID, status catalog.ReviewStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Review{}).
		Where("product_id = ? AND status = ?", productID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts reviews in the given moderation state
func (r *GormReviewRepository) CountByStatus(ctx context.Context, status catalog.ReviewStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Review{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a review
func (r *GormReviewRepository) Save(ctx context.Context, review *catalog.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

// Delete deletes a review
func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Review{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormReviewRepository implements ReviewRepository
var _ catalog.ReviewRepository = (*GormReviewRepository)(nil)
