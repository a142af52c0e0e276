package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Cart is the authoritative shopping cart for an authenticated user.
// Each user owns at most one cart, with at most one line per product.
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Items  []Item    `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// Item is a single cart line. Product fields are a denormalized snapshot
// taken at add time; the catalog remains authoritative for them.
type Item struct {
	shared.BaseEntity
	CartID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product,priority:1"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_product,priority:2"`
	ProductName  string          `gorm:"type:varchar(200);not null"`
	ProductSlug  string          `gorm:"type:varchar(200);not null"`
	ProductImage string          `gorm:"type:varchar(500)"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity     int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "cart_items"
}

// Snapshot carries the denormalized product fields applied to a cart line
type Snapshot struct {
	Name  string
	Slug  string
	Image string
	Price decimal.Decimal
}

// NewCart creates an empty cart for a user
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             make([]Item, 0),
	}
}

// AddItem adds quantity of a product. An existing line for the same product
// is incremented rather than duplicated.
func (c *Cart) AddItem(productID uuid.UUID, quantity int, snap Snapshot) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].UpdatedAt = time.Now()
			c.touch()
			return nil
		}
	}

	c.Items = append(c.Items, Item{
		BaseEntity:   shared.NewBaseEntity(),
		CartID:       c.ID,
		ProductID:    productID,
		ProductName:  snap.Name,
		ProductSlug:  snap.Slug,
		ProductImage: snap.Image,
		UnitPrice:    snap.Price,
		Quantity:     quantity,
	})
	c.touch()
	return nil
}

// SetQuantity sets the quantity for a product line. A quantity of zero or
// less removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.Items[i].UpdatedAt = time.Now()
			c.touch()
			return nil
		}
	}
	return shared.ErrNotFound
}

// RemoveItem deletes a product line from the cart
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return nil
		}
	}
	return shared.ErrNotFound
}

// Clear removes every line from the cart
func (c *Cart) Clear() {
	c.Items = c.Items[:0]
	c.touch()
}

// ItemFor returns the line for a product, or nil when absent
func (c *Cart) ItemFor(productID uuid.UUID) *Item {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Count returns the total quantity across all lines
func (c *Cart) Count() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// Total returns the sum of unit price times quantity across all lines
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity))))
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
