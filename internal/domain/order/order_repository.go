package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Query narrows admin order listings
type Query struct {
	UserID *uuid.UUID
	Status *Status
	Search string
}

// Repository defines the persistence interface for orders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)
	FindAll(ctx context.Context, query Query, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, query Query, filter shared.Filter) (int64, error)
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}
