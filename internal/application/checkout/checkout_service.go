package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Service turns a cart into an order and manages orders afterwards
type Service struct {
	orderRepo   order.Repository
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
	metrics     *telemetry.StoreMetrics
	logger      *zap.Logger
}

// NewService creates a new checkout Service
func NewService(
	orderRepo order.Repository,
	cartRepo cart.Repository,
	productRepo catalog.ProductRepository,
	metrics *telemetry.StoreMetrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// PlaceOrder checks out the user's cart: every line is revalidated
// against the catalog, stock is decremented, the current catalog price
// is snapshotted onto the order, and the cart is emptied. The order is
// recorded as pending; payment capture is out of scope.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "place_order")
	defer span.End()

	c, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.failure(ctx, "empty_cart", shared.NewDomainError("EMPTY_CART", "Cart is empty"))
		}
		return nil, err
	}
	if c.IsEmpty() {
		return nil, s.failure(ctx, "empty_cart", shared.NewDomainError("EMPTY_CART", "Cart is empty"))
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

	lines := make([]order.LineInput, 0, len(c.Items))
	touched := make([]*catalog.Product, 0, len(c.Items))
	for i := range c.Items {
		line := &c.Items[i]
		product, ok := byID[line.ProductID]
		if !ok || product.Status != catalog.ProductStatusActive {
			return nil, s.failure(ctx, "unavailable", shared.NewDomainError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("%s is no longer available", line.ProductName)))
		}
		if err := product.DecrementStock(line.Quantity); err != nil {
			return nil, s.failure(ctx, "insufficient_stock", shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d of %s in stock", product.StockCount, product.Name)))
		}
		touched = append(touched, product)
		lines = append(lines, order.LineInput{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSlug: product.Slug,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		})
	}

	o, err := order.NewOrder(userID, order.ShippingDetails{
		Name:    req.ShippingName,
		Address: req.ShippingAddress,
		Phone:   req.ShippingPhone,
	}, lines)
	if err != nil {
		return nil, s.failure(ctx, "invalid_order", err)
	}

	for _, product := range touched {
		if err := s.productRepo.Save(ctx, product); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.cartRepo.DeleteItems(ctx, c.ID); err != nil {
		s.logger.Warn("order placed but cart not cleared",
			zap.String("order_number", o.Number),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced(ctx, o.Total)
	}
	s.logger.Info("order placed",
		zap.String("order_number", o.Number),
		zap.String("user_id", userID.String()),
		zap.String("total", o.Total.String()))

	response := ToOrderResponse(o)
	return &response, nil
}

// ListMine returns the caller's orders, newest first
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, filter OrderListFilter) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID, s.domainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// GetMine returns one of the caller's orders
func (s *Service) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// CancelMine cancels one of the caller's orders and restores the stock
// it reserved
func (s *Service) CancelMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, o)
}

// List returns orders across all users for the admin backend
func (s *Service) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	query := order.Query{
		UserID: filter.UserID,
		Search: filter.Search,
	}
	if filter.Status != "" {
		status := order.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown order status")
		}
		query.Status = &status
	}

	domainFilter := s.domainFilter(filter)
	orders, err := s.orderRepo.FindAll(ctx, query, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, query, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// Get returns any order for the admin backend
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateStatus moves an order through its status machine. Cancelling
// restores stock like a customer cancellation does.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status(status) {
	case order.StatusPaid:
		err = o.MarkPaid()
	case order.StatusShipped:
		err = o.MarkShipped()
	case order.StatusDelivered:
		err = o.MarkDelivered()
	case order.StatusCancelled:
		return s.cancel(ctx, o)
	default:
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

func (s *Service) cancel(ctx context.Context, o *order.Order) (*OrderResponse, error) {
	if err := o.Cancel(); err != nil {
		return nil, err
	}

	for i := range o.Items {
		line := &o.Items[i]
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if err := product.RestoreStock(line.Quantity); err != nil {
			return nil, err
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

func (s *Service) findOwned(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, shared.ErrForbidden
	}
	return o, nil
}

func (s *Service) domainFilter(filter OrderListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
}

func (s *Service) failure(ctx context.Context, reason string, err error) error {
	if s.metrics != nil {
		s.metrics.RecordCheckoutFailure(ctx, reason)
	}
	return err
}
