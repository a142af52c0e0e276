package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Service handles the authoritative server-side cart. The client SDK
// treats this cart as the source of truth during sync.
type Service struct {
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
	metrics     *telemetry.StoreMetrics
	logger      *zap.Logger
}

// NewService creates a new cart Service
func NewService(
	cartRepo cart.Repository,
	productRepo catalog.ProductRepository,
	metrics *telemetry.StoreMetrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// Get returns the user's cart. A user without a saved cart gets an
// empty one; nothing is persisted until the first mutation.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, c)
}

// AddItem adds a product to the cart, snapshotting name, slug, image,
// and price onto the line
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "add_item")
	defer span.End()

	product, err := s.sellableProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := 0
	if line := c.ItemFor(req.ProductID); line != nil {
		current = line.Quantity
	}
	if current+req.Quantity > product.StockCount {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Only %d of %s in stock", product.StockCount, product.Name))
	}

	if err := c.AddItem(product.ID, req.Quantity, cart.Snapshot{
		Name:  product.Name,
		Slug:  product.Slug,
		Image: product.FirstImage(),
		Price: product.Price,
	}); err != nil {
		return nil, err
	}

	if err := s.cartRepo.Save(ctx, c); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return s.respond(ctx, c)
}

// UpdateQuantity sets a line's quantity. Zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity > 0 {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if quantity > product.StockCount {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d of %s in stock", product.StockCount, product.Name))
		}
	}

	if err := c.SetQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	return s.respond(ctx, c)
}

// RemoveItem deletes a product line from the cart
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	return s.respond(ctx, c)
}

// Clear empties the cart in one statement
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	c, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.cartRepo.DeleteItems(ctx, c.ID)
}

// Sync merges a client's locally held lines into the server cart.
// Server lines win on quantity conflict; client-only lines are
// validated against the catalog and appended. The merged cart is the
// response the client adopts.
func (s *Service) Sync(ctx context.Context, userID uuid.UUID, req SyncRequest) (*CartResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "sync")
	defer span.End()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, item := range req.Items {
		if c.ItemFor(item.ProductID) != nil {
			continue
		}
		product, err := s.sellableProduct(ctx, item.ProductID)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.Is(err, shared.ErrNotFound) || errors.As(err, &domainErr) {
				s.logger.Debug("dropping unsellable line during cart sync",
					zap.String("product_id", item.ProductID.String()),
					zap.Error(err))
				continue
			}
			return nil, err
		}

		quantity := item.Quantity
		if quantity > product.StockCount {
			quantity = product.StockCount
		}
		if err := c.AddItem(product.ID, quantity, cart.Snapshot{
			Name:  product.Name,
			Slug:  product.Slug,
			Image: product.FirstImage(),
			Price: product.Price,
		}); err != nil {
			return nil, err
		}
		changed = true
	}

	if changed {
		if err := s.cartRepo.Save(ctx, c); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.RecordCartSync(ctx)
	}

	return s.respond(ctx, c)
}

// Validate reports whether every cart line can be checked out as-is:
// products must still exist, be active, and cover the requested
// quantity, at the price snapshotted on the line
func (s *Service) Validate(ctx context.Context, userID uuid.UUID) (*ValidationResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return &ValidationResponse{Valid: true, Errors: []string{}}, nil
	}

	byID, err := s.catalogFor(ctx, c)
	if err != nil {
		return nil, err
	}

	validationErrors := []string{}
	for i := range c.Items {
		line := &c.Items[i]
		product, ok := byID[line.ProductID]
		if !ok || product.Status != catalog.ProductStatusActive {
			validationErrors = append(validationErrors,
				fmt.Sprintf("%s is no longer available", line.ProductName))
			continue
		}
		if product.StockCount == 0 {
			validationErrors = append(validationErrors,
				fmt.Sprintf("%s is out of stock", line.ProductName))
			continue
		}
		if line.Quantity > product.StockCount {
			validationErrors = append(validationErrors,
				fmt.Sprintf("Only %d of %s in stock", product.StockCount, line.ProductName))
		}
		if !line.UnitPrice.Equal(product.Price) {
			validationErrors = append(validationErrors,
				fmt.Sprintf("Price of %s changed from %s to %s",
					line.ProductName, line.UnitPrice.String(), product.Price.String()))
		}
	}

	return &ValidationResponse{
		Valid:  len(validationErrors) == 0,
		Errors: validationErrors,
	}, nil
}

// respond builds the response DTO, joining current catalog state onto
// the cart lines so clients see live stock and images
func (s *Service) respond(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	products, err := s.catalogFor(ctx, c)
	if err != nil {
		return nil, err
	}
	response := ToCartResponse(c, products)
	return &response, nil
}

func (s *Service) catalogFor(ctx context.Context, c *cart.Cart) (map[uuid.UUID]*catalog.Product, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(c.Items))
	for i := range c.Items {
		ids[i] = c.Items[i].ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return cart.NewCart(userID), nil
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) sellableProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Status != catalog.ProductStatusActive {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available")
	}
	if product.StockCount == 0 {
		return nil, shared.NewDomainError("OUT_OF_STOCK", "Product is out of stock")
	}
	return product, nil
}
