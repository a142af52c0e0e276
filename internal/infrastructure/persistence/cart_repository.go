package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser finds the cart owned by a user, with its items loaded
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Save persists the cart and its current items. Items removed from the
// aggregate are deleted so the stored rows mirror the in-memory state.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(c).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(c.Items))
		for i := range c.Items {
			keep = append(keep, c.Items[i].ID)
		}

		del := tx.Where("cart_id = ?", c.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&cart.Item{}).Error; err != nil {
			return err
		}

		if len(c.Items) > 0 {
			if err := tx.Save(&c.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteItems removes every item from a cart in one statement
func (r *GormCartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&cart.Item{}).Error
}

// Ensure GormCartRepository implements Repository
var _ cart.Repository = (*GormCartRepository)(nil)
