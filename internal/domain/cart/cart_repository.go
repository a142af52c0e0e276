package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for carts
type Repository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
}
