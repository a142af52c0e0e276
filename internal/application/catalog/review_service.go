package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// ReviewService handles review submission, moderation, and the rating
// aggregates kept on products
type ReviewService struct {
	reviewRepo  catalog.ReviewRepository
	productRepo catalog.ProductRepository
	metrics     *telemetry.StoreMetrics
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviewRepo catalog.ReviewRepository,
	productRepo catalog.ProductRepository,
	metrics *telemetry.StoreMetrics,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// Submit creates a pending review. A user may review a product once.
func (s *ReviewService) Submit(ctx context.Context, userID, productID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "review", "submit")
	defer span.End()

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != catalog.ProductStatusActive {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product cannot be reviewed")
	}

	if _, err := s.reviewRepo.FindByUserAndProduct(ctx, userID, productID); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "You have already reviewed this product")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	review, err := catalog.NewReview(productID, userID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, review); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordReviewSubmitted(ctx, review.Rating)
	}

	response := ToReviewResponse(review)
	return &response, nil
}

// ListApproved returns the approved reviews shown on a product page
func (s *ReviewService) ListApproved(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]ReviewResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	reviews, err := s.reviewRepo.FindByProduct(ctx, productID, catalog.ReviewStatusApproved, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reviewRepo.CountByProduct(ctx, productID, catalog.ReviewStatusApproved)
	if err != nil {
		return nil, 0, err
	}
	return ToReviewResponses(reviews), total, nil
}

// ListPending returns reviews awaiting moderation, oldest first
func (s *ReviewService) ListPending(ctx context.Context, filter shared.Filter) ([]ReviewResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	reviews, err := s.reviewRepo.FindByStatus(ctx, catalog.ReviewStatusPending, filter)
	if err != nil {
		return nil, err
	}
	return ToReviewResponses(reviews), nil
}

// Approve publishes a pending review and folds its rating into the
// product's aggregate
func (s *ReviewService) Approve(ctx context.Context, reviewID uuid.UUID) (*ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if err := review.Approve(); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, review.ProductID)
	if err != nil {
		return nil, err
	}
	if err := product.AddRating(review.Rating); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	response := ToReviewResponse(review)
	return &response, nil
}

// Reject declines a pending review
func (s *ReviewService) Reject(ctx context.Context, reviewID uuid.UUID) (*ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if err := review.Reject(); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}

	response := ToReviewResponse(review)
	return &response, nil
}

// Delete removes a review. An approved review's rating is backed out of
// the product aggregate first.
func (s *ReviewService) Delete(ctx context.Context, reviewID uuid.UUID) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.IsApproved() {
		product, err := s.productRepo.FindByID(ctx, review.ProductID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if product != nil {
			if err := product.RemoveRating(review.Rating); err != nil {
				return err
			}
			if err := s.productRepo.Save(ctx, product); err != nil {
				return err
			}
		}
	}

	return s.reviewRepo.Delete(ctx, reviewID)
}
