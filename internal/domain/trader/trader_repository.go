package trader

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Query narrows admin trader listings
type Query struct {
	Status *Status
	Search string
}

// Repository defines the persistence interface for traders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Trader, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*Trader, error)
	FindAll(ctx context.Context, query Query, filter shared.Filter) ([]Trader, error)
	Count(ctx context.Context, query Query, filter shared.Filter) (int64, error)
	ExistsByUser(ctx context.Context, userID uuid.UUID) (bool, error)
	Save(ctx context.Context, trader *Trader) error
	Delete(ctx context.Context, id uuid.UUID) error
}
