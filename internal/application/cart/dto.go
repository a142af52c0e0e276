// Package cart implements the application services for the server-side
// shopping cart.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
)

// AddItemRequest adds a product to the caller's cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantityRequest sets the quantity of a cart line. Zero removes it.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// SyncItem is one cart line carried by a client during sync
type SyncItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// SyncRequest carries the client's locally held cart lines
type SyncRequest struct {
	Items []SyncItem `json:"items"`
}

// ItemResponse represents a cart line in API responses. Images and stock
// reflect the current catalog state so clients can validate locally;
// name and price remain the snapshot taken at add time.
type ItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSlug  string          `json:"product_slug"`
	ProductImage string          `json:"product_image"`
	Images       []string        `json:"images"`
	InStock      bool            `json:"in_stock"`
	StockCount   int             `json:"stock_count"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// CartResponse represents the cart in API responses
type CartResponse struct {
	Items []ItemResponse  `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ValidationResponse reports whether the cart can be checked out as-is
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ToCartResponse converts a domain cart to a response DTO. The product map
// supplies current catalog state per line; a line whose product is missing
// from the map is reported as not purchasable.
func ToCartResponse(c *cart.Cart, products map[uuid.UUID]*catalog.Product) CartResponse {
	items := make([]ItemResponse, len(c.Items))
	for i := range c.Items {
		line := &c.Items[i]
		item := ItemResponse{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			ProductSlug:  line.ProductSlug,
			ProductImage: line.ProductImage,
			Images:       []string{},
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			LineTotal:    line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if product, ok := products[line.ProductID]; ok {
			item.Images = product.ImageList()
			item.InStock = product.Status == catalog.ProductStatusActive && product.InStock()
			item.StockCount = product.StockCount
		} else if line.ProductImage != "" {
			item.Images = []string{line.ProductImage}
		}
		items[i] = item
	}
	return CartResponse{
		Items: items,
		Count: c.Count(),
		Total: c.Total(),
	}
}
