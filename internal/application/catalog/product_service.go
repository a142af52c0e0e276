package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// ProductService handles catalog product operations for the storefront
// and the admin backend
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	cache        cache.CatalogCache
	images       ImageStorage
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	catalogCache cache.CatalogCache,
	images ImageStorage,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        catalogCache,
		images:       images,
		logger:       logger,
	}
}

// List retrieves storefront products. Only active products are visible
// unless the caller asks for a specific status (admin listings).
func (s *ProductService) List(ctx context.Context, filter ProductListFilter, includeAll bool) ([]ProductListResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "list")
	defer span.End()

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	query := catalog.ProductQuery{
		CategoryID: filter.CategoryID,
		TraderID:   filter.TraderID,
		Search:     filter.Search,
		MinPrice:   filter.MinPrice,
		MaxPrice:   filter.MaxPrice,
		InStock:    filter.InStock,
	}
	if !includeAll {
		active := catalog.ProductStatusActive
		query.Status = &active
	} else if filter.Status != "" {
		status := catalog.ProductStatus(filter.Status)
		query.Status = &status
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}

	products, err := s.productRepo.FindAll(ctx, query, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, query, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	return ToProductListResponses(products), total, nil
}

// GetBySlug retrieves a product for its storefront page
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product, trying the cache first
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	if cached, err := s.cache.GetProduct(ctx, id); err == nil {
		response := ToProductResponse(cached)
		return &response, nil
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warn("failed to cache product", zap.String("id", id.String()), zap.Error(err))
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Create creates a new product owned by the given trader. A nil trader
// means the product belongs to the platform itself.
func (s *ProductService) Create(ctx context.Context, traderID *uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "create")
	defer span.End()

	exists, err := s.productRepo.ExistsBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this slug already exists")
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
	}

	product, err := catalog.NewProduct(req.Slug, req.Name, req.Price)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.CompareAtPrice != nil {
		if err := product.SetPrice(req.Price, *req.CompareAtPrice); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}
	product.SetTrader(traderID)
	if req.StockCount != nil {
		if err := product.SetStock(*req.StockCount); err != nil {
			return nil, err
		}
	}
	if len(req.Images) > 0 {
		if err := product.SetImages(encodeImages(req.Images)); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		product.SortOrder = *req.SortOrder
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Update updates a product. ownerID restricts the update to products of
// that trader; nil means no ownership check (admin).
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "update")
	defer span.End()

	product, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		if req.Name != nil {
			name = *req.Name
		}
		description := product.Description
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.CompareAtPrice != nil {
		price := product.Price
		if req.Price != nil {
			price = *req.Price
		}
		compareAt := product.CompareAtPrice
		if req.CompareAtPrice != nil {
			compareAt = *req.CompareAtPrice
		}
		if err := product.SetPrice(price, compareAt); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if req.StockCount != nil {
		if err := product.SetStock(*req.StockCount); err != nil {
			return nil, err
		}
	}
	if req.Images != nil {
		if err := product.SetImages(encodeImages(req.Images)); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		product.SortOrder = *req.SortOrder
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, product.ID)

	response := ToProductResponse(product)
	return &response, nil
}

// SetStatus activates, deactivates, or archives a product
func (s *ProductService) SetStatus(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID, status string) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	switch catalog.ProductStatus(status) {
	case catalog.ProductStatusActive:
		err = product.Activate()
	case catalog.ProductStatusDraft:
		err = product.Deactivate()
	case catalog.ProductStatusArchived:
		product.Archive()
	default:
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown product status")
	}
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product from the catalog entirely. Archive is the
// usual path; delete is for products never sold.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) error {
	if _, err := s.findOwned(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// GenerateImageUploadURL returns a presigned slot for uploading a
// product image, plus the public URL to store on the product afterwards
func (s *ProductService) GenerateImageUploadURL(ctx context.Context, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Only image uploads are allowed")
	}

	ext := path.Ext(req.FileName)
	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.New(), ext)

	uploadURL, expiresAt, err := s.images.GenerateUploadURL(ctx, key, req.ContentType, 0)
	if err != nil {
		return nil, err
	}

	return &ImageUploadResponse{
		UploadURL: uploadURL,
		PublicURL: s.images.PublicURL(key),
		Key:       key,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ProductService) findOwned(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != nil && (product.TraderID == nil || *product.TraderID != *ownerID) {
		return nil, shared.ErrForbidden
	}
	return product, nil
}

func (s *ProductService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate product cache", zap.String("id", id.String()), zap.Error(err))
	}
}
