package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductHandler handles product catalog endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductListQuery holds product listing query parameters
type ProductListQuery struct {
	dto.ListRequest
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	MinPrice   string `form:"min_price"`
	MaxPrice   string `form:"max_price"`
	InStock    bool   `form:"in_stock"`
	Status     string `form:"status" binding:"omitempty,oneof=draft active archived"`
}

func (q ProductListQuery) toFilter() (catalogapp.ProductListFilter, error) {
	filter := catalogapp.ProductListFilter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
		Search:   q.Search,
		InStock:  q.InStock,
		Status:   q.Status,
	}

	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return filter, err
		}
		filter.CategoryID = &id
	}
	if q.MinPrice != "" {
		min, err := decimal.NewFromString(q.MinPrice)
		if err != nil {
			return filter, err
		}
		filter.MinPrice = &min
	}
	if q.MaxPrice != "" {
		max, err := decimal.NewFromString(q.MaxPrice)
		if err != nil {
			return filter, err
		}
		filter.MaxPrice = &max
	}

	return filter, nil
}

// List returns active products matching the query
func (h *ProductHandler) List(c *gin.Context) {
	var query ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), filter, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, pageOf(filter.Page), pageSizeOf(filter.PageSize))
}

// GetBySlug returns a single product by its URL slug
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.productService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// ListManaged returns products regardless of status. Traders only see their
// own listings.
func (h *ProductHandler) ListManaged(c *gin.Context) {
	var query ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := query.toFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if !isAdmin(c) {
		userID, err := getUserID(c)
		if err != nil {
			h.Unauthorized(c, "Authentication required")
			return
		}
		filter.TraderID = &userID
	}

	products, total, err := h.productService.List(c.Request.Context(), filter, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, pageOf(filter.Page), pageSizeOf(filter.PageSize))
}

// GetByID returns a single product by ID for management views
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Create creates a new product. Traders own what they create; admin-created
// products are unowned.
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	owner, err := h.owner(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	product, err := h.productService.Create(c.Request.Context(), owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// Update modifies an existing product
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	owner, err := h.owner(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, owner, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// SetStatusRequest changes a product's lifecycle status
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft active archived"`
}

// SetStatus moves a product between draft, active and archived
func (h *ProductHandler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	owner, err := h.owner(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	product, err := h.productService.SetStatus(c.Request.Context(), id, owner, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete removes a product from the catalog
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	owner, err := h.owner(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id, owner); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GenerateImageUploadURL returns a presigned URL for uploading a product image
func (h *ProductHandler) GenerateImageUploadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req catalogapp.ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.productService.GenerateImageUploadURL(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// owner returns the ownership scope for catalog mutations: admins operate on
// any product, traders only on their own.
func (h *ProductHandler) owner(c *gin.Context) (*uuid.UUID, error) {
	if isAdmin(c) {
		return nil, nil
	}
	userID, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return &userID, nil
}

func pageOf(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func pageSizeOf(pageSize int) int {
	if pageSize <= 0 || pageSize > 100 {
		return 20
	}
	return pageSize
}
