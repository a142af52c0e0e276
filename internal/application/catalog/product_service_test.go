package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, query catalog.ProductQuery, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, query, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, query catalog.ProductQuery, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, query, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	args := m.Called(ctx, parentID)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) HasProducts(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockImageStorage is a mock implementation of ImageStorage
type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockImageStorage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockImageStorage) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockImageStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func newTestProductService(productRepo *MockProductRepository, categoryRepo *MockCategoryRepository, images *MockImageStorage) *ProductService {
	return NewProductService(
		productRepo,
		categoryRepo,
		cache.NewInMemoryCatalogCache(cache.DefaultConfig()),
		images,
		zap.NewNop(),
	)
}

func newTestProduct(t *testing.T, slug string, price string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(slug, "Test Product", decimal.RequireFromString(price))
	assert.NoError(t, err)
	return product
}

func TestProductService_Create_Success(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := newTestProductService(mockProductRepo, mockCategoryRepo, new(MockImageStorage))

	ctx := context.Background()
	req := CreateProductRequest{
		Slug:  "walnut-desk",
		Name:  "Walnut Desk",
		Price: decimal.RequireFromString("299.99"),
	}

	mockProductRepo.On("ExistsBySlug", ctx, req.Slug).Return(false, nil)
	mockProductRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

	result, err := service.Create(ctx, nil, req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "walnut-desk", result.Slug)
	assert.Equal(t, "Walnut Desk", result.Name)
	assert.Equal(t, "draft", result.Status)
	assert.True(t, req.Price.Equal(result.Price))
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_Create_WithAllFields(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := newTestProductService(mockProductRepo, mockCategoryRepo, new(MockImageStorage))

	ctx := context.Background()
	categoryID := uuid.New()
	traderID := uuid.New()
	category, err := catalog.NewCategory("desks", "Desks", nil)
	assert.NoError(t, err)

	compareAt := decimal.RequireFromString("349.99")
	stock := 12
	sortOrder := 3
	req := CreateProductRequest{
		Slug:           "walnut-desk",
		Name:           "Walnut Desk",
		Description:    "Solid walnut standing desk",
		CategoryID:     &categoryID,
		Price:          decimal.RequireFromString("299.99"),
		CompareAtPrice: &compareAt,
		StockCount:     &stock,
		Images:         []string{"https://cdn.example.com/desk.jpg"},
		SortOrder:      &sortOrder,
	}

	mockProductRepo.On("ExistsBySlug", ctx, req.Slug).Return(false, nil)
	mockCategoryRepo.On("FindByID", ctx, categoryID).Return(category, nil)
	mockProductRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

	result, err := service.Create(ctx, &traderID, req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "Solid walnut standing desk", result.Description)
	assert.Equal(t, &categoryID, result.CategoryID)
	assert.Equal(t, &traderID, result.TraderID)
	assert.Equal(t, 12, result.StockCount)
	assert.True(t, result.InStock)
	assert.Equal(t, []string{"https://cdn.example.com/desk.jpg"}, result.Images)
	assert.Equal(t, 3, result.SortOrder)
	mockProductRepo.AssertExpectations(t)
	mockCategoryRepo.AssertExpectations(t)
}

func TestProductService_Create_DuplicateSlug(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	req := CreateProductRequest{
		Slug:  "walnut-desk",
		Name:  "Walnut Desk",
		Price: decimal.RequireFromString("299.99"),
	}

	mockProductRepo.On("ExistsBySlug", ctx, req.Slug).Return(true, nil)

	result, err := service.Create(ctx, nil, req)

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	mockProductRepo.AssertNotCalled(t, "Save")
}

func TestProductService_Create_InvalidCategory(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	service := newTestProductService(mockProductRepo, mockCategoryRepo, new(MockImageStorage))

	ctx := context.Background()
	categoryID := uuid.New()
	req := CreateProductRequest{
		Slug:       "walnut-desk",
		Name:       "Walnut Desk",
		Price:      decimal.RequireFromString("299.99"),
		CategoryID: &categoryID,
	}

	mockProductRepo.On("ExistsBySlug", ctx, req.Slug).Return(false, nil)
	mockCategoryRepo.On("FindByID", ctx, categoryID).Return(nil, shared.ErrNotFound)

	result, err := service.Create(ctx, nil, req)

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CATEGORY", domainErr.Code)
	mockProductRepo.AssertNotCalled(t, "Save")
}

func TestProductService_GetByID_CachesProduct(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	product := newTestProduct(t, "walnut-desk", "299.99")

	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil).Once()

	first, err := service.GetByID(ctx, product.ID)
	assert.NoError(t, err)
	assert.Equal(t, product.ID, first.ID)

	// second read is served from the cache; the repo expectation is Once
	second, err := service.GetByID(ctx, product.ID)
	assert.NoError(t, err)
	assert.Equal(t, product.ID, second.ID)
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	id := uuid.New()
	mockProductRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	result, err := service.GetByID(ctx, id)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, result)
}

func TestProductService_List_ForcesActiveForStorefront(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	product := newTestProduct(t, "walnut-desk", "299.99")
	assert.NoError(t, product.SetStock(5))
	assert.NoError(t, product.Activate())

	active := catalog.ProductStatusActive
	expectedQuery := catalog.ProductQuery{Status: &active}
	expectedFilter := shared.Filter{Page: 1, PageSize: 20}

	mockProductRepo.On("FindAll", ctx, expectedQuery, expectedFilter).Return([]catalog.Product{*product}, nil)
	mockProductRepo.On("Count", ctx, expectedQuery, expectedFilter).Return(int64(1), nil)

	results, total, err := service.List(ctx, ProductListFilter{Status: "draft"}, false)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, results, 1)
	assert.Equal(t, "walnut-desk", results[0].Slug)
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_List_AdminStatusFilter(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	draft := catalog.ProductStatus("draft")
	expectedQuery := catalog.ProductQuery{Status: &draft}
	expectedFilter := shared.Filter{Page: 1, PageSize: 20}

	mockProductRepo.On("FindAll", ctx, expectedQuery, expectedFilter).Return([]catalog.Product{}, nil)
	mockProductRepo.On("Count", ctx, expectedQuery, expectedFilter).Return(int64(0), nil)

	results, total, err := service.List(ctx, ProductListFilter{Status: "draft"}, true)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, results)
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_Update_Success(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	product := newTestProduct(t, "walnut-desk", "299.99")

	newName := "Oak Desk"
	newPrice := decimal.RequireFromString("259.99")
	req := UpdateProductRequest{Name: &newName, Price: &newPrice}

	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	mockProductRepo.On("Save", ctx, product).Return(nil)

	result, err := service.Update(ctx, product.ID, nil, req)

	assert.NoError(t, err)
	assert.Equal(t, "Oak Desk", result.Name)
	assert.True(t, newPrice.Equal(result.Price))
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_Update_ForbiddenForOtherTrader(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	product := newTestProduct(t, "walnut-desk", "299.99")
	product.SetTrader(&owner)

	newName := "Oak Desk"
	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)

	result, err := service.Update(ctx, product.ID, &intruder, UpdateProductRequest{Name: &newName})

	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Nil(t, result)
	mockProductRepo.AssertNotCalled(t, "Save")
}

func TestProductService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("activate", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

		product := newTestProduct(t, "walnut-desk", "299.99")
		mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mockProductRepo.On("Save", ctx, product).Return(nil)

		result, err := service.SetStatus(ctx, product.ID, nil, "active")
		assert.NoError(t, err)
		assert.Equal(t, "active", result.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		mockProductRepo := new(MockProductRepository)
		service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

		product := newTestProduct(t, "walnut-desk", "299.99")
		mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		result, err := service.SetStatus(ctx, product.ID, nil, "frozen")
		assert.Error(t, err)
		assert.Nil(t, result)
		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATUS", domainErr.Code)
	})
}

func TestProductService_Delete_Success(t *testing.T) {
	mockProductRepo := new(MockProductRepository)
	service := newTestProductService(mockProductRepo, new(MockCategoryRepository), new(MockImageStorage))

	ctx := context.Background()
	product := newTestProduct(t, "walnut-desk", "299.99")

	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	mockProductRepo.On("Delete", ctx, product.ID).Return(nil)

	err := service.Delete(ctx, product.ID, nil)

	assert.NoError(t, err)
	mockProductRepo.AssertExpectations(t)
}

func TestProductService_GenerateImageUploadURL(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockImages := new(MockImageStorage)
		service := newTestProductService(new(MockProductRepository), new(MockCategoryRepository), mockImages)

		expiresAt := time.Now().Add(15 * time.Minute)
		mockImages.On("GenerateUploadURL", ctx, mock.AnythingOfType("string"), "image/jpeg", time.Duration(0)).
			Return("https://s3.example.com/upload", expiresAt, nil)
		mockImages.On("PublicURL", mock.AnythingOfType("string")).Return("https://cdn.example.com/desk.jpg")

		result, err := service.GenerateImageUploadURL(ctx, productID, ImageUploadRequest{
			FileName:    "desk.jpg",
			ContentType: "image/jpeg",
		})

		assert.NoError(t, err)
		assert.Equal(t, "https://s3.example.com/upload", result.UploadURL)
		assert.Equal(t, "https://cdn.example.com/desk.jpg", result.PublicURL)
		assert.Contains(t, result.Key, "products/"+productID.String()+"/")
		assert.Contains(t, result.Key, ".jpg")
	})

	t.Run("rejects non-image content type", func(t *testing.T) {
		mockImages := new(MockImageStorage)
		service := newTestProductService(new(MockProductRepository), new(MockCategoryRepository), mockImages)

		result, err := service.GenerateImageUploadURL(ctx, productID, ImageUploadRequest{
			FileName:    "malware.exe",
			ContentType: "application/octet-stream",
		})

		assert.Error(t, err)
		assert.Nil(t, result)
		mockImages.AssertNotCalled(t, "GenerateUploadURL")
	})
}
