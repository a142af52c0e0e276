package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email address
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAll finds all users matching the query and filter
func (r *GormUserRepository) FindAll(ctx context.Context, query identity.UserQuery, filter shared.Filter) ([]identity.User, error) {
	var users []identity.User
	q := r.applyQuery(r.db.WithContext(ctx).Model(&identity.User{}), query, filter)
	q = applySort(q, filter, UserSortFields, "created_at DESC")
	q = applyPagination(q, filter)

	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Count counts users matching the query and filter
func (r *GormUserRepository) Count(ctx context.Context, query identity.UserQuery, filter shared.Filter) (int64, error) {
	var count int64
	q := r.applyQuery(r.db.WithContext(ctx).Model(&identity.User{}), query, filter)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByEmail checks whether a user with the given email exists
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&identity.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete deletes a user
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&identity.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyQuery applies the user query conditions
func (r *GormUserRepository) applyQuery(q *gorm.DB, query identity.UserQuery, filter shared.Filter) *gorm.DB {
	if query.Role != nil {
		q = q.Where("role = ?", *query.Role)
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
		q = q.Where("email ILIKE ? OR display_name ILIKE ?", pattern, pattern)
	}
	return q
}

// Ensure GormUserRepository implements UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
