package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Slug           string           `json:"slug" binding:"required,min=1,max=200,slug"`
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Description    string           `json:"description" binding:"max=5000"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	StockCount     *int             `json:"stock_count"`
	Images         []string         `json:"images"`
	SortOrder      *int             `json:"sort_order"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" binding:"omitempty,max=5000"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	StockCount     *int             `json:"stock_count"`
	Images         []string         `json:"images"`
	SortOrder      *int             `json:"sort_order"`
}

// ProductListFilter narrows product listings
type ProductListFilter struct {
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
	Search     string
	CategoryID *uuid.UUID
	TraderID   *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	Status     string
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Slug           string          `json:"slug"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CategoryID     *uuid.UUID      `json:"category_id"`
	TraderID       *uuid.UUID      `json:"trader_id"`
	Price          decimal.Decimal `json:"price"`
	CompareAtPrice decimal.Decimal `json:"compare_at_price"`
	StockCount     int             `json:"stock_count"`
	InStock        bool            `json:"in_stock"`
	Images         []string        `json:"images"`
	Status         string          `json:"status"`
	SortOrder      int             `json:"sort_order"`
	AverageRating  float64         `json:"average_rating"`
	RatingCount    int             `json:"rating_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ProductListResponse represents a list item for products
type ProductListResponse struct {
	ID            uuid.UUID       `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	Price         decimal.Decimal `json:"price"`
	StockCount    int             `json:"stock_count"`
	InStock       bool            `json:"in_stock"`
	Image         string          `json:"image"`
	Status        string          `json:"status"`
	AverageRating float64         `json:"average_rating"`
}

// ToProductResponse converts a domain product to a response DTO
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Slug:           p.Slug,
		Name:           p.Name,
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		TraderID:       p.TraderID,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		StockCount:     p.StockCount,
		InStock:        p.InStock(),
		Images:         p.ImageList(),
		Status:         string(p.Status),
		SortOrder:      p.SortOrder,
		AverageRating:  p.AverageRating(),
		RatingCount:    p.RatingCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}

// ToProductListResponses converts domain products to list DTOs
func ToProductListResponses(products []catalog.Product) []ProductListResponse {
	out := make([]ProductListResponse, len(products))
	for i := range products {
		p := &products[i]
		image := p.FirstImage()
		out[i] = ProductListResponse{
			ID:            p.ID,
			Slug:          p.Slug,
			Name:          p.Name,
			CategoryID:    p.CategoryID,
			Price:         p.Price,
			StockCount:    p.StockCount,
			InStock:       p.InStock(),
			Image:         image,
			Status:        string(p.Status),
			AverageRating: p.AverageRating(),
		}
	}
	return out
}

func encodeImages(images []string) string {
	if len(images) == 0 {
		return "[]"
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Slug      string     `json:"slug" binding:"required,min=1,max=200,slug"`
	Name      string     `json:"name" binding:"required,min=1,max=100"`
	ParentID  *uuid.UUID `json:"parent_id"`
	SortOrder *int       `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name      *string    `json:"name" binding:"omitempty,min=1,max=100"`
	ParentID  *uuid.UUID `json:"parent_id"`
	SortOrder *int       `json:"sort_order"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID          `json:"id"`
	Slug      string             `json:"slug"`
	Name      string             `json:"name"`
	ParentID  *uuid.UUID         `json:"parent_id"`
	SortOrder int                `json:"sort_order"`
	Children  []CategoryResponse `json:"children,omitempty"`
}

// ToCategoryResponse converts a domain category to a response DTO
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Slug:      c.Slug,
		Name:      c.Name,
		ParentID:  c.ParentID,
		SortOrder: c.SortOrder,
	}
}

// BuildCategoryTree assembles a flat category list into a forest of
// root categories with nested children
func BuildCategoryTree(categories []catalog.Category) []CategoryResponse {
	byParent := make(map[uuid.UUID][]catalog.Category)
	var roots []catalog.Category
	for _, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}

	var build func(c catalog.Category) CategoryResponse
	build = func(c catalog.Category) CategoryResponse {
		resp := ToCategoryResponse(&c)
		for _, child := range byParent[c.ID] {
			resp.Children = append(resp.Children, build(child))
		}
		return resp
	}

	out := make([]CategoryResponse, 0, len(roots))
	for _, root := range roots {
		out = append(out, build(root))
	}
	return out
}

// CreateReviewRequest represents a request to submit a product review
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewResponse represents a review in API responses
type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToReviewResponse converts a domain review to a response DTO
func ToReviewResponse(r *catalog.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// ToReviewResponses converts domain reviews to response DTOs
func ToReviewResponses(reviews []catalog.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		out[i] = ToReviewResponse(&reviews[i])
	}
	return out
}

// ImageUploadRequest asks for a presigned upload slot for a product image
type ImageUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadResponse carries the presigned URL and the final public URL
type ImageUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}
