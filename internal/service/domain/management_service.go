package domain

import (
	"context"

	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/policy"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

type ManagementService interface {
	CreateManagement(ctx context.Context, caller auth.Caller, hotelID, userID uint) (*model.Management, error)
	GetManagement(ctx context.Context, caller auth.Caller, id uint) (*model.Management, error)
	ListManagements(ctx context.Context, caller auth.Caller, filter repository.ManagementFilter) ([]model.Management, error)
	UpdateManagement(ctx context.Context, caller auth.Caller, id, hotelID, userID uint) (*model.Management, error)
	DeleteManagement(ctx context.Context, caller auth.Caller, id uint) error
}

type managementService struct {
	store  repository.Store
	logger *zap.Logger
}

var _ ManagementService = (*managementService)(nil)

func NewManagementService(store repository.Store, logger *zap.Logger) *managementService {
	return &managementService{
		store:  store,
		logger: logger,
	}
}

func checkLinkTargets(ctx context.Context, tx repository.Store, hotelID, userID uint) error {
	exists, err := tx.Hotels().ExistsByID(ctx, hotelID)
	if err != nil {
		return translate(err, nil, "load hotel")
	}
	if !exists {
		return service.ErrHotelNotFound
	}
	if _, err := tx.Users().GetByID(ctx, userID); err != nil {
		return translate(err, service.ErrUserNotFound, "load user")
	}
	return nil
}

func (s *managementService) CreateManagement(ctx context.Context, caller auth.Caller, hotelID, userID uint) (*model.Management, error) {
	if !policy.Can(caller.Actor(), policy.ActionCreate, policy.ResourceManagement, 0) {
		return nil, service.ErrForbidden
	}
	var m *model.Management
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := checkLinkTargets(ctx, tx, hotelID, userID); err != nil {
			return err
		}
		m = &model.Management{HotelID: hotelID, UserID: userID}
		return translate(tx.Managements().Create(ctx, m), nil, "create management")
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("management created", zap.Uint("management_id", m.ID), zap.Uint("hotel_id", hotelID), zap.Uint("user_id", userID))
	return m, nil
}

func (s *managementService) GetManagement(ctx context.Context, caller auth.Caller, id uint) (*model.Management, error) {
	m, err := s.store.Managements().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrManagementNotFound, "load management")
	}
	if !policy.Can(caller.Actor(), policy.ActionRead, policy.ResourceManagement, 0) {
		return nil, service.ErrForbidden
	}
	return m, nil
}

// ListManagements returns an empty list to anyone but administrators.
func (s *managementService) ListManagements(ctx context.Context, caller auth.Caller, filter repository.ManagementFilter) ([]model.Management, error) {
	if policy.ListScope(caller.Actor(), policy.ResourceManagement) != policy.ScopeAll {
		return []model.Management{}, nil
	}
	ms, err := s.store.Managements().List(ctx, filter)
	if err != nil {
		return nil, translate(err, nil, "list managements")
	}
	return ms, nil
}

func (s *managementService) UpdateManagement(ctx context.Context, caller auth.Caller, id, hotelID, userID uint) (*model.Management, error) {
	var m *model.Management
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		m, err = tx.Managements().GetByID(ctx, id)
		if err != nil {
			return translate(err, service.ErrManagementNotFound, "load management")
		}
		if !policy.Can(caller.Actor(), policy.ActionUpdate, policy.ResourceManagement, 0) {
			return service.ErrForbidden
		}
		if err := checkLinkTargets(ctx, tx, hotelID, userID); err != nil {
			return err
		}
		m.HotelID, m.UserID = hotelID, userID
		return translate(tx.Managements().Save(ctx, m), service.ErrManagementNotFound, "save management")
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *managementService) DeleteManagement(ctx context.Context, caller auth.Caller, id uint) error {
	if _, err := s.store.Managements().GetByID(ctx, id); err != nil {
		return translate(err, service.ErrManagementNotFound, "load management")
	}
	if !policy.Can(caller.Actor(), policy.ActionDelete, policy.ResourceManagement, 0) {
		return service.ErrForbidden
	}
	if err := s.store.Managements().Delete(ctx, id); err != nil {
		return translate(err, service.ErrManagementNotFound, "delete management")
	}
	s.logger.Info("management deleted", zap.Uint("management_id", id))
	return nil
}
