// Package checkout implements order placement and order management
// application services.
package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
)

// PlaceOrderRequest carries the shipping details for checkout
type PlaceOrderRequest struct {
	ShippingName    string `json:"shipping_name" binding:"required,min=1,max=100"`
	ShippingAddress string `json:"shipping_address" binding:"required,min=1,max=500"`
	ShippingPhone   string `json:"shipping_phone" binding:"max=30"`
}

// UpdateStatusRequest moves an order through its status machine
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderListFilter narrows order listings
type OrderListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
	UserID   *uuid.UUID
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Number          string              `json:"number"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          string              `json:"status"`
	Total           decimal.Decimal     `json:"total"`
	ShippingName    string              `json:"shipping_name"`
	ShippingAddress string              `json:"shipping_address"`
	ShippingPhone   string              `json:"shipping_phone"`
	Items           []OrderItemResponse `json:"items"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		line := &o.Items[i]
		items[i] = OrderItemResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSlug: line.ProductSlug,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Amount:      line.Amount,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		Number:          o.Number,
		UserID:          o.UserID,
		Status:          o.Status.String(),
		Total:           o.Total,
		ShippingName:    o.ShippingName,
		ShippingAddress: o.ShippingAddress,
		ShippingPhone:   o.ShippingPhone,
		Items:           items,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
	}
}

// ToOrderResponses converts domain orders to response DTOs
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
