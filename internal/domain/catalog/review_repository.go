package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewRepository defines the persistence interface for reviews
type ReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, status ReviewStatus, filter shared.Filter) ([]Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*Review, error)
	FindByStatus(ctx context.Context, status ReviewStatus, filter shared.Filter) ([]Review, error)
	CountByProduct(ctx context.Context, productID uuid.UUID, status ReviewStatus) (int64, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}
