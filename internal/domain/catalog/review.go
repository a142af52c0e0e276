package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewStatus represents the moderation status of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review represents a customer review of a product.
// Only approved reviews contribute to the product's rating aggregate.
type Review struct {
	shared.BaseAggregateRoot
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_product,priority:1"`
	Rating    int          `gorm:"not null"`
	Comment   string       `gorm:"type:text"`
	Status    ReviewStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a new review pending moderation
func NewReview(productID, userID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	if len(strings.TrimSpace(comment)) > 2000 {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment cannot exceed 2000 characters")
	}

	return &Review{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		UserID:            userID,
		Rating:            rating,
		Comment:           strings.TrimSpace(comment),
		Status:            ReviewStatusPending,
	}, nil
}

// Approve publishes the review
func (r *Review) Approve() error {
	if r.Status == ReviewStatusApproved {
		return shared.ErrInvalidState
	}
	r.Status = ReviewStatusApproved
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// Reject hides the review from the storefront
func (r *Review) Reject() error {
	if r.Status == ReviewStatusRejected {
		return shared.ErrInvalidState
	}
	r.Status = ReviewStatusRejected
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// IsApproved reports whether the review is publicly visible
func (r *Review) IsApproved() bool {
	return r.Status == ReviewStatusApproved
}
