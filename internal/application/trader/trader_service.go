package trader

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trader"
)

// Service handles merchant applications and their moderation
type Service struct {
	traderRepo trader.Repository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewService creates a new trader Service
func NewService(traderRepo trader.Repository, userRepo identity.UserRepository, logger *zap.Logger) *Service {
	return &Service{
		traderRepo: traderRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Apply submits a merchant application for the calling user. One
// application per user, regardless of outcome.
func (s *Service) Apply(ctx context.Context, userID uuid.UUID, req ApplyRequest) (*TraderResponse, error) {
	exists, err := s.traderRepo.ExistsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A trader application already exists for this account")
	}

	t, err := trader.NewTrader(userID, req.StoreName, req.Description, req.ContactEmail, req.ContactPhone)
	if err != nil {
		return nil, err
	}

	if err := s.traderRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("trader application submitted",
		zap.String("user_id", userID.String()),
		zap.String("store_name", t.StoreName))

	response := ToTraderResponse(t)
	return &response, nil
}

// GetMine returns the calling user's trader record
func (s *Service) GetMine(ctx context.Context, userID uuid.UUID) (*TraderResponse, error) {
	t, err := s.traderRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToTraderResponse(t)
	return &response, nil
}

// UpdateProfile updates the calling user's store profile
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*TraderResponse, error) {
	t, err := s.traderRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := t.Update(req.StoreName, req.Description, req.ContactPhone); err != nil {
		return nil, err
	}
	if err := s.traderRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	response := ToTraderResponse(t)
	return &response, nil
}

// List returns traders for the admin backend
func (s *Service) List(ctx context.Context, filter TraderListFilter) ([]TraderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	query := trader.Query{Search: filter.Search}
	if filter.Status != "" {
		status := trader.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown trader status")
		}
		query.Status = &status
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}

	traders, err := s.traderRepo.FindAll(ctx, query, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.traderRepo.Count(ctx, query, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTraderResponses(traders), total, nil
}

// Get returns a single trader for the admin backend
func (s *Service) Get(ctx context.Context, traderID uuid.UUID) (*TraderResponse, error) {
	t, err := s.traderRepo.FindByID(ctx, traderID)
	if err != nil {
		return nil, err
	}
	response := ToTraderResponse(t)
	return &response, nil
}

// Approve accepts an application or lifts a suspension, and promotes
// the underlying account to the trader role
func (s *Service) Approve(ctx context.Context, traderID uuid.UUID) (*TraderResponse, error) {
	t, err := s.traderRepo.FindByID(ctx, traderID)
	if err != nil {
		return nil, err
	}

	if err := t.Approve(); err != nil {
		return nil, err
	}
	if err := s.traderRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleCustomer {
		if err := user.SetRole(identity.RoleTrader); err != nil {
			return nil, err
		}
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}
	}

	s.logger.Info("trader approved",
		zap.String("trader_id", traderID.String()),
		zap.String("store_name", t.StoreName))

	response := ToTraderResponse(t)
	return &response, nil
}

// Reject declines a pending application
func (s *Service) Reject(ctx context.Context, traderID uuid.UUID, reason string) (*TraderResponse, error) {
	t, err := s.traderRepo.FindByID(ctx, traderID)
	if err != nil {
		return nil, err
	}

	if err := t.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.traderRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	response := ToTraderResponse(t)
	return &response, nil
}

// Suspend takes an approved trader off the storefront
func (s *Service) Suspend(ctx context.Context, traderID uuid.UUID, reason string) (*TraderResponse, error) {
	t, err := s.traderRepo.FindByID(ctx, traderID)
	if err != nil {
		return nil, err
	}

	if err := t.Suspend(reason); err != nil {
		return nil, err
	}
	if err := s.traderRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("trader suspended",
		zap.String("trader_id", traderID.String()),
		zap.String("reason", reason))

	response := ToTraderResponse(t)
	return &response, nil
}
