package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Product represents a sellable item in the storefront catalog.
// It is the aggregate root for product-related operations.
type Product struct {
	shared.BaseAggregateRoot
	Slug           string          `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Description    string          `gorm:"type:text"`
	CategoryID     *uuid.UUID      `gorm:"type:uuid;index"`
	TraderID       *uuid.UUID      `gorm:"type:uuid;index"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CompareAtPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockCount     int             `gorm:"not null;default:0"`
	Images         string          `gorm:"type:jsonb"` // JSON array of image URLs
	Status         ProductStatus   `gorm:"type:varchar(20);not null;default:'draft'"`
	SortOrder      int             `gorm:"not null;default:0"`
	RatingSum      int             `gorm:"not null;default:0"`
	RatingCount    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product in draft status
func NewProduct(slug, name string, price decimal.Decimal) (*Product, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              strings.ToLower(slug),
		Name:              name,
		Price:             price,
		CompareAtPrice:    decimal.Zero,
		Images:            "[]",
		Status:            ProductStatusDraft,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.touch()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetPrice updates the selling price and an optional compare-at price
func (p *Product) SetPrice(price, compareAt decimal.Decimal) error {
	if price.IsNegative() || compareAt.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if !compareAt.IsZero() && compareAt.LessThan(price) {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price must not be below the selling price")
	}

	p.Price = price
	p.CompareAtPrice = compareAt
	p.touch()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetCategory assigns the product to a category (nil clears it)
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.touch()
}

// SetTrader assigns the owning trader
func (p *Product) SetTrader(traderID *uuid.UUID) {
	p.TraderID = traderID
	p.touch()
}

// SetImages replaces the image list with a JSON-encoded array of URLs
func (p *Product) SetImages(imagesJSON string) error {
	if imagesJSON == "" {
		imagesJSON = "[]"
	}
	p.Images = imagesJSON
	p.touch()
	return nil
}

// ImageList returns the catalog image URLs. The column normally holds a
// JSON array; a bare URL from legacy imports is tolerated.
func (p *Product) ImageList() []string {
	if p.Images == "" || p.Images == "[]" {
		return []string{}
	}
	var images []string
	if err := json.Unmarshal([]byte(p.Images), &images); err == nil {
		return images
	}
	var single string
	if err := json.Unmarshal([]byte(p.Images), &single); err == nil && single != "" {
		return []string{single}
	}
	return []string{p.Images}
}

// FirstImage returns the first catalog image URL, or "" when the
// product has none
func (p *Product) FirstImage() string {
	if images := p.ImageList(); len(images) > 0 {
		return images[0]
	}
	return ""
}

// SetStock sets the absolute stock count
func (p *Product) SetStock(count int) error {
	if count < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock count cannot be negative")
	}
	p.StockCount = count
	p.touch()
	p.AddDomainEvent(NewProductStockChangedEvent(p))
	return nil
}

// DecrementStock reduces stock by the given quantity, failing when not enough is available
func (p *Product) DecrementStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.StockCount < quantity {
		return shared.ErrInsufficientStock
	}
	p.StockCount -= quantity
	p.touch()
	p.AddDomainEvent(NewProductStockChangedEvent(p))
	return nil
}

// RestoreStock returns stock to the product, e.g. after an order cancellation
func (p *Product) RestoreStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.StockCount += quantity
	p.touch()
	p.AddDomainEvent(NewProductStockChangedEvent(p))
	return nil
}

// InStock reports whether the product can currently be purchased
func (p *Product) InStock() bool {
	return p.Status == ProductStatusActive && p.StockCount > 0
}

// Activate makes the product visible in the storefront
func (p *Product) Activate() error {
	if p.Status == ProductStatusArchived {
		return shared.ErrInvalidState
	}
	p.Status = ProductStatusActive
	p.touch()
	return nil
}

// Deactivate hides the product without archiving it
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusArchived {
		return shared.ErrInvalidState
	}
	p.Status = ProductStatusDraft
	p.touch()
	return nil
}

// Archive permanently retires the product from the catalog
func (p *Product) Archive() {
	p.Status = ProductStatusArchived
	p.touch()
	p.AddDomainEvent(NewProductArchivedEvent(p))
}

// AddRating folds a new review rating into the aggregate
func (p *Product) AddRating(rating int) error {
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	p.RatingSum += rating
	p.RatingCount++
	p.touch()
	return nil
}

// RemoveRating removes a previously counted review rating
func (p *Product) RemoveRating(rating int) error {
	if p.RatingCount == 0 {
		return shared.ErrInvalidState
	}
	if rating < 1 || rating > 5 {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	p.RatingSum -= rating
	p.RatingCount--
	p.touch()
	return nil
}

// AverageRating returns the mean review rating, or 0 when unreviewed
func (p *Product) AverageRating() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.RatingCount)
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func validateSlug(slug string) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(slug) > 200 {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 200 characters")
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' {
			return shared.NewDomainError("INVALID_SLUG", "Slug may only contain letters, digits and dashes")
		}
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	return nil
}
