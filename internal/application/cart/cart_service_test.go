package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// MockCartRepository is a mock implementation of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
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

func newTestService(cartRepo *MockCartRepository, productRepo *MockProductRepository) *Service {
	return NewService(cartRepo, productRepo, nil, zap.NewNop())
}

func sellable(t *testing.T, slug string, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(slug, "Test "+slug, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, product.SetStock(stock))
	require.NoError(t, product.Activate())
	return product
}

func cartWith(t *testing.T, userID uuid.UUID, product *catalog.Product, quantity int) *cart.Cart {
	t.Helper()
	c := cart.NewCart(userID)
	require.NoError(t, c.AddItem(product.ID, quantity, cart.Snapshot{
		Name:  product.Name,
		Slug:  product.Slug,
		Price: product.Price,
	}))
	return c
}

func TestCartService_Get_NoSavedCart(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	service := newTestService(mockCartRepo, new(MockProductRepository))

	ctx := context.Background()
	userID := uuid.New()
	mockCartRepo.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)

	result, err := service.Get(ctx, userID)

	assert.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Count)
	assert.True(t, result.Total.IsZero())
	mockCartRepo.AssertNotCalled(t, "Save")
}

func TestCartService_Get_JoinsCatalogState(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	userID := uuid.New()
	product := sellable(t, "mug", "12.50", 4)
	require.NoError(t, product.SetImages(`["/img/mug-front.jpg","/img/mug-side.jpg"]`))
	goneID := uuid.New()

	c := cart.NewCart(userID)
	require.NoError(t, c.AddItem(product.ID, 2, cart.Snapshot{Name: product.Name, Price: product.Price}))
	require.NoError(t, c.AddItem(goneID, 1, cart.Snapshot{Name: "Vanished", Image: "/img/vanished.jpg"}))

	mockCartRepo.On("FindByUser", ctx, userID).Return(c, nil)
	mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
		Return([]catalog.Product{*product}, nil)

	result, err := service.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	assert.True(t, result.Items[0].InStock)
	assert.Equal(t, 4, result.Items[0].StockCount)
	assert.Equal(t, []string{"/img/mug-front.jpg", "/img/mug-side.jpg"}, result.Items[0].Images)

	assert.False(t, result.Items[1].InStock)
	assert.Equal(t, 0, result.Items[1].StockCount)
	assert.Equal(t, []string{"/img/vanished.jpg"}, result.Items[1].Images)
}

func TestCartService_AddItem_Success(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	userID := uuid.New()
	product := sellable(t, "mug", "12.50", 10)

	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
		Return([]catalog.Product{*product}, nil)
	mockCartRepo.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)
	mockCartRepo.On("Save", ctx, mock.AnythingOfType("*cart.Cart")).Return(nil)

	result, err := service.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})

	assert.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, product.ID, result.Items[0].ProductID)
	assert.Equal(t, "Test mug", result.Items[0].ProductName)
	assert.Equal(t, 2, result.Items[0].Quantity)
	assert.True(t, result.Items[0].InStock)
	assert.Equal(t, 10, result.Items[0].StockCount)
	assert.True(t, decimal.RequireFromString("25").Equal(result.Total))
	mockCartRepo.AssertExpectations(t)
}

func TestCartService_AddItem_InsufficientStock(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	userID := uuid.New()
	product := sellable(t, "mug", "12.50", 3)
	existing := cartWith(t, userID, product, 2)

	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)

	result, err := service.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	mockCartRepo.AssertNotCalled(t, "Save")
}

func TestCartService_AddItem_InactiveProduct(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	product, err := catalog.NewProduct("mug", "Test mug", decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)

	result, err := service.AddItem(ctx, uuid.New(), AddItemRequest{ProductID: product.ID, Quantity: 1})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PRODUCT_UNAVAILABLE", domainErr.Code)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("sets quantity", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		mockProductRepo := new(MockProductRepository)
		service := newTestService(mockCartRepo, mockProductRepo)

		userID := uuid.New()
		product := sellable(t, "mug", "12.50", 10)
		existing := cartWith(t, userID, product, 1)

		mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
		mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
			Return([]catalog.Product{*product}, nil)
		mockCartRepo.On("Save", ctx, existing).Return(nil)

		result, err := service.UpdateQuantity(ctx, userID, product.ID, 5)

		assert.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, 5, result.Items[0].Quantity)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		mockProductRepo := new(MockProductRepository)
		service := newTestService(mockCartRepo, mockProductRepo)

		userID := uuid.New()
		product := sellable(t, "mug", "12.50", 10)
		existing := cartWith(t, userID, product, 2)

		mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
		mockCartRepo.On("Save", ctx, existing).Return(nil)

		result, err := service.UpdateQuantity(ctx, userID, product.ID, 0)

		assert.NoError(t, err)
		assert.Empty(t, result.Items)
		mockProductRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("beyond stock", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		mockProductRepo := new(MockProductRepository)
		service := newTestService(mockCartRepo, mockProductRepo)

		userID := uuid.New()
		product := sellable(t, "mug", "12.50", 3)
		existing := cartWith(t, userID, product, 1)

		mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
		mockProductRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		result, err := service.UpdateQuantity(ctx, userID, product.ID, 4)

		assert.Error(t, err)
		assert.Nil(t, result)
		mockCartRepo.AssertNotCalled(t, "Save")
	})
}

func TestCartService_RemoveItem(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	service := newTestService(mockCartRepo, new(MockProductRepository))

	ctx := context.Background()
	userID := uuid.New()
	product := sellable(t, "mug", "12.50", 10)
	existing := cartWith(t, userID, product, 2)

	mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
	mockCartRepo.On("Save", ctx, existing).Return(nil)

	result, err := service.RemoveItem(ctx, userID, product.ID)

	assert.NoError(t, err)
	assert.Empty(t, result.Items)

	err = existing.RemoveItem(product.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCartService_Clear(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("deletes items in one call", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		service := newTestService(mockCartRepo, new(MockProductRepository))

		product := sellable(t, "mug", "12.50", 10)
		existing := cartWith(t, userID, product, 2)

		mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
		mockCartRepo.On("DeleteItems", ctx, existing.ID).Return(nil)

		assert.NoError(t, service.Clear(ctx, userID))
		mockCartRepo.AssertExpectations(t)
	})

	t.Run("no saved cart is a no-op", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		service := newTestService(mockCartRepo, new(MockProductRepository))

		mockCartRepo.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)

		assert.NoError(t, service.Clear(ctx, userID))
		mockCartRepo.AssertNotCalled(t, "DeleteItems")
	})
}

func TestCartService_Sync_ServerWinsOnConflict(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	userID := uuid.New()
	product := sellable(t, "mug", "12.50", 10)
	existing := cartWith(t, userID, product, 3)

	mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
	mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
		Return([]catalog.Product{*product}, nil)

	// the client claims quantity 7 for a line the server already has
	result, err := service.Sync(ctx, userID, SyncRequest{
		Items: []SyncItem{{ProductID: product.ID, Quantity: 7}},
	})

	assert.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 3, result.Items[0].Quantity)
	mockCartRepo.AssertNotCalled(t, "Save")
	mockProductRepo.AssertNotCalled(t, "FindByID")
}

func TestCartService_Sync_AppendsLocalOnlyLines(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	userID := uuid.New()
	remote := sellable(t, "mug", "12.50", 10)
	local := sellable(t, "coaster", "4.00", 5)
	existing := cartWith(t, userID, remote, 2)

	mockCartRepo.On("FindByUser", ctx, userID).Return(existing, nil)
	mockProductRepo.On("FindByID", ctx, local.ID).Return(local, nil)
	mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
		Return([]catalog.Product{*remote, *local}, nil)
	mockCartRepo.On("Save", ctx, existing).Return(nil)

	result, err := service.Sync(ctx, userID, SyncRequest{
		Items: []SyncItem{
			{ProductID: remote.ID, Quantity: 9},
			{ProductID: local.ID, Quantity: 1},
		},
	})

	assert.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 2, result.Items[0].Quantity)
	assert.Equal(t, local.ID, result.Items[1].ProductID)
	assert.Equal(t, 1, result.Items[1].Quantity)
	mockCartRepo.AssertExpectations(t)
}

func TestCartService_Sync_DropsUnsellableAndClampsStock(t *testing.T) {
	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	service := newTestService(mockCartRepo, mockProductRepo)

	ctx := context.Background()
	userID := uuid.New()
	gone := uuid.New()
	scarce := sellable(t, "poster", "8.00", 2)

	mockCartRepo.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)
	mockProductRepo.On("FindByID", ctx, gone).Return(nil, shared.ErrNotFound)
	mockProductRepo.On("FindByID", ctx, scarce.ID).Return(scarce, nil)
	mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
		Return([]catalog.Product{*scarce}, nil)
	mockCartRepo.On("Save", ctx, mock.AnythingOfType("*cart.Cart")).Return(nil)

	result, err := service.Sync(ctx, userID, SyncRequest{
		Items: []SyncItem{
			{ProductID: gone, Quantity: 1},
			{ProductID: scarce.ID, Quantity: 5},
		},
	})

	assert.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, scarce.ID, result.Items[0].ProductID)
	assert.Equal(t, 2, result.Items[0].Quantity)
}

func TestCartService_Validate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty cart is valid", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		service := newTestService(mockCartRepo, new(MockProductRepository))

		mockCartRepo.On("FindByUser", ctx, userID).Return(nil, shared.ErrNotFound)

		result, err := service.Validate(ctx, userID)
		assert.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("flags every failing line", func(t *testing.T) {
		mockCartRepo := new(MockCartRepository)
		mockProductRepo := new(MockProductRepository)
		service := newTestService(mockCartRepo, mockProductRepo)

		ok := sellable(t, "mug", "12.50", 10)
		scarce := sellable(t, "poster", "8.00", 1)
		repriced := sellable(t, "coaster", "4.00", 5)
		goneID := uuid.New()

		c := cart.NewCart(userID)
		require.NoError(t, c.AddItem(ok.ID, 1, cart.Snapshot{Name: ok.Name, Price: ok.Price}))
		require.NoError(t, c.AddItem(scarce.ID, 3, cart.Snapshot{Name: scarce.Name, Price: scarce.Price}))
		require.NoError(t, c.AddItem(repriced.ID, 1, cart.Snapshot{Name: repriced.Name, Price: decimal.RequireFromString("3.50")}))
		require.NoError(t, c.AddItem(goneID, 1, cart.Snapshot{Name: "Vanished"}))

		mockCartRepo.On("FindByUser", ctx, userID).Return(c, nil)
		mockProductRepo.On("FindByIDs", ctx, mock.AnythingOfType("[]uuid.UUID")).
			Return([]catalog.Product{*ok, *scarce, *repriced}, nil)

		result, err := service.Validate(ctx, userID)

		assert.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 3)
		assert.Contains(t, result.Errors[0], "poster")
		assert.Contains(t, result.Errors[1], "changed")
		assert.Contains(t, result.Errors[2], "no longer available")
	})
}
