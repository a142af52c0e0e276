package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// CategoryService handles category management and the storefront
// category tree
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	cache        cache.CatalogCache
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, catalogCache cache.CatalogCache, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        catalogCache,
		logger:       logger,
	}
}

// Tree returns the full category forest, served from cache when warm
func (s *CategoryService) Tree(ctx context.Context) ([]CategoryResponse, error) {
	if cached, err := s.cache.GetCategories(ctx); err == nil {
		return BuildCategoryTree(cached), nil
	}

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetCategories(ctx, categories); err != nil {
		s.logger.Warn("failed to cache categories", zap.Error(err))
	}
	return BuildCategoryTree(categories), nil
}

// GetBySlug retrieves a single category
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	exists, err := s.categoryRepo.ExistsBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this slug already exists")
	}

	if req.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, err
		}
	}

	category, err := catalog.NewCategory(req.Slug, req.Name, req.ParentID)
	if err != nil {
		return nil, err
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	response := ToCategoryResponse(category)
	return &response, nil
}

// Update updates a category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := category.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, err
		}
		if err := category.SetParent(req.ParentID); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	response := ToCategoryResponse(category)
	return &response, nil
}

// Delete removes a category. Categories with products or child
// categories cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	hasProducts, err := s.categoryRepo.HasProducts(ctx, id)
	if err != nil {
		return err
	}
	if hasProducts {
		return shared.NewDomainError("CATEGORY_IN_USE", "Category still has products assigned")
	}

	children, err := s.categoryRepo.FindChildren(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return shared.NewDomainError("CATEGORY_IN_USE", "Category still has child categories")
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCategories(ctx); err != nil {
		s.logger.Warn("failed to invalidate category cache", zap.Error(err))
	}
}
