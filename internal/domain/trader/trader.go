package trader

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the onboarding status of a trader
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is a known trader Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// Trader represents a merchant selling through the storefront.
// It is the aggregate root for merchant onboarding.
type Trader struct {
	shared.BaseAggregateRoot
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	StoreName    string    `gorm:"type:varchar(100);not null"`
	Description  string    `gorm:"type:text"`
	ContactEmail string    `gorm:"type:varchar(254);not null"`
	ContactPhone string    `gorm:"type:varchar(30)"`
	Status       Status    `gorm:"type:varchar(20);not null;default:'pending'"`
	StatusReason string    `gorm:"type:varchar(500)"`
	ApprovedAt   *time.Time
}

// TableName returns the table name for GORM
func (Trader) TableName() string {
	return "traders"
}

// NewTrader creates a new trader application awaiting review
func NewTrader(userID uuid.UUID, storeName, description, contactEmail, contactPhone string) (*Trader, error) {
	if err := validateStoreName(storeName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(contactEmail) == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Contact email is required")
	}

	trader := &Trader{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		StoreName:         strings.TrimSpace(storeName),
		Description:       strings.TrimSpace(description),
		ContactEmail:      strings.ToLower(strings.TrimSpace(contactEmail)),
		ContactPhone:      strings.TrimSpace(contactPhone),
		Status:            StatusPending,
	}

	trader.AddDomainEvent(NewTraderAppliedEvent(trader))

	return trader, nil
}

// Approve accepts a pending application or lifts a suspension
func (t *Trader) Approve() error {
	if t.Status != StatusPending && t.Status != StatusSuspended {
		return shared.ErrInvalidState
	}
	t.Status = StatusApproved
	t.StatusReason = ""
	now := time.Now()
	t.ApprovedAt = &now
	t.touch()
	t.AddDomainEvent(NewTraderStatusChangedEvent(t))
	return nil
}

// Reject declines a pending application
func (t *Trader) Reject(reason string) error {
	if t.Status != StatusPending {
		return shared.ErrInvalidState
	}
	t.Status = StatusRejected
	t.StatusReason = reason
	t.touch()
	t.AddDomainEvent(NewTraderStatusChangedEvent(t))
	return nil
}

// Suspend takes an approved trader off the storefront
func (t *Trader) Suspend(reason string) error {
	if t.Status != StatusApproved {
		return shared.ErrInvalidState
	}
	t.Status = StatusSuspended
	t.StatusReason = reason
	t.touch()
	t.AddDomainEvent(NewTraderStatusChangedEvent(t))
	return nil
}

// Update updates the trader's store profile
func (t *Trader) Update(storeName, description, contactPhone string) error {
	if err := validateStoreName(storeName); err != nil {
		return err
	}
	t.StoreName = strings.TrimSpace(storeName)
	t.Description = strings.TrimSpace(description)
	t.ContactPhone = strings.TrimSpace(contactPhone)
	t.touch()
	return nil
}

// IsApproved reports whether the trader may sell
func (t *Trader) IsApproved() bool {
	return t.Status == StatusApproved
}

func (t *Trader) touch() {
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

func validateStoreName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_STORE_NAME", "Store name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_STORE_NAME", "Store name cannot exceed 100 characters")
	}
	return nil
}
