// Package trader implements merchant onboarding application services.
package trader

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/trader"
)

// ApplyRequest submits a merchant application
type ApplyRequest struct {
	StoreName    string `json:"store_name" binding:"required,min=1,max=100"`
	Description  string `json:"description" binding:"max=5000"`
	ContactEmail string `json:"contact_email" binding:"required,email,max=254"`
	ContactPhone string `json:"contact_phone" binding:"max=30"`
}

// UpdateProfileRequest updates an approved trader's store profile
type UpdateProfileRequest struct {
	StoreName    string `json:"store_name" binding:"required,min=1,max=100"`
	Description  string `json:"description" binding:"max=5000"`
	ContactPhone string `json:"contact_phone" binding:"max=30"`
}

// ModerationRequest carries the reason for a reject or suspend decision
type ModerationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TraderListFilter narrows admin trader listings
type TraderListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
}

// TraderResponse represents a trader in API responses
type TraderResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	StoreName    string     `json:"store_name"`
	Description  string     `json:"description"`
	ContactEmail string     `json:"contact_email"`
	ContactPhone string     `json:"contact_phone"`
	Status       string     `json:"status"`
	StatusReason string     `json:"status_reason,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToTraderResponse converts a domain trader to a response DTO
func ToTraderResponse(t *trader.Trader) TraderResponse {
	return TraderResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		StoreName:    t.StoreName,
		Description:  t.Description,
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		Status:       string(t.Status),
		StatusReason: t.StatusReason,
		ApprovedAt:   t.ApprovedAt,
		CreatedAt:    t.CreatedAt,
	}
}

// ToTraderResponses converts domain traders to response DTOs
func ToTraderResponses(traders []trader.Trader) []TraderResponse {
	out := make([]TraderResponse, len(traders))
	for i := range traders {
		out[i] = ToTraderResponse(&traders[i])
	}
	return out
}
