package trader

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTrader = "Trader"

// Event type constants
const (
	EventTypeTraderApplied       = "TraderApplied"
	EventTypeTraderStatusChanged = "TraderStatusChanged"
)

// TraderAppliedEvent is published when a user applies to become a trader
type TraderAppliedEvent struct {
	shared.BaseDomainEvent
	TraderID  uuid.UUID `json:"trader_id"`
	UserID    uuid.UUID `json:"user_id"`
	StoreName string    `json:"store_name"`
}

// NewTraderAppliedEvent creates a new TraderAppliedEvent
func NewTraderAppliedEvent(t *Trader) *TraderAppliedEvent {
	return &TraderAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTraderApplied, AggregateTypeTrader, t.ID),
		TraderID:        t.ID,
		UserID:          t.UserID,
		StoreName:       t.StoreName,
	}
}

// TraderStatusChangedEvent is published on every onboarding transition
type TraderStatusChangedEvent struct {
	shared.BaseDomainEvent
	TraderID uuid.UUID `json:"trader_id"`
	UserID   uuid.UUID `json:"user_id"`
	Status   Status    `json:"status"`
	Reason   string    `json:"reason,omitempty"`
}

// NewTraderStatusChangedEvent creates a new TraderStatusChangedEvent
func NewTraderStatusChangedEvent(t *Trader) *TraderStatusChangedEvent {
	return &TraderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTraderStatusChanged, AggregateTypeTrader, t.ID),
		TraderID:        t.ID,
		UserID:          t.UserID,
		Status:          t.Status,
		Reason:          t.StatusReason,
	}
}
