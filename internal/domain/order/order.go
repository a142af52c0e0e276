package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the status of a customer order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a valid order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false // terminal states
	}
	return false
}

// Item represents a line item in an order. Price fields are snapshots taken
// at checkout; later catalog changes do not affect placed orders.
type Item struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductSlug string          `gorm:"type:varchar(200);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity    int             `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// Order is the aggregate root for a customer order
type Order struct {
	shared.BaseAggregateRoot
	Number          string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status          Status          `gorm:"type:varchar(20);not null;default:'pending'"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingName    string          `gorm:"type:varchar(100);not null"`
	ShippingAddress string          `gorm:"type:varchar(500);not null"`
	ShippingPhone   string          `gorm:"type:varchar(30)"`
	Items           []Item          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// ShippingDetails carries the checkout shipping fields
type ShippingDetails struct {
	Name    string
	Address string
	Phone   string
}

// LineInput is one product line going into a new order
type LineInput struct {
	ProductID   uuid.UUID
	ProductName string
	ProductSlug string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// NewOrder creates a pending order from checkout line inputs
func NewOrder(userID uuid.UUID, shipping ShippingDetails, lines []LineInput) (*Order, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one item")
	}
	if shipping.Name == "" || shipping.Address == "" {
		return nil, shared.NewDomainError("INVALID_SHIPPING", "Shipping name and address are required")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            generateOrderNumber(),
		UserID:            userID,
		Status:            StatusPending,
		Total:             decimal.Zero,
		ShippingName:      shipping.Name,
		ShippingAddress:   shipping.Address,
		ShippingPhone:     shipping.Phone,
		Items:             make([]Item, 0, len(lines)),
	}

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		amount := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		o.Items = append(o.Items, Item{
			BaseEntity:  shared.NewBaseEntity(),
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSlug: line.ProductSlug,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Amount:      amount,
		})
		o.Total = o.Total.Add(amount)
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))

	return o, nil
}

// MarkPaid transitions the order to paid
func (o *Order) MarkPaid() error {
	if err := o.transition(StatusPaid); err != nil {
		return err
	}
	now := time.Now()
	o.PaidAt = &now
	return nil
}

// MarkShipped transitions the order to shipped
func (o *Order) MarkShipped() error {
	if err := o.transition(StatusShipped); err != nil {
		return err
	}
	now := time.Now()
	o.ShippedAt = &now
	return nil
}

// MarkDelivered transitions the order to delivered
func (o *Order) MarkDelivered() error {
	if err := o.transition(StatusDelivered); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	return nil
}

// Cancel transitions the order to cancelled
func (o *Order) Cancel() error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// IsCancellable reports whether the order can still be cancelled
func (o *Order) IsCancellable() bool {
	return o.Status.CanTransitionTo(StatusCancelled)
}

func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o))
	return nil
}

// generateOrderNumber builds a human-readable order number. Uniqueness is
// enforced by the database index; the random suffix avoids collisions for
// orders placed in the same second.
func generateOrderNumber() string {
	id := uuid.New()
	return fmt.Sprintf("SO-%s-%X", time.Now().Format("20060102150405"), id[:4])
}
