package domain

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/policy"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

type HotelInput struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

type HotelService interface {
	CreateHotel(ctx context.Context, caller auth.Caller, in HotelInput) (*model.Hotel, error)
	GetHotel(ctx context.Context, caller auth.Caller, id uint) (*model.Hotel, error)
	ListHotels(ctx context.Context, caller auth.Caller) ([]model.Hotel, error)
	UpdateHotel(ctx context.Context, caller auth.Caller, id uint, in HotelInput) (*model.Hotel, error)
	DeleteHotel(ctx context.Context, caller auth.Caller, id uint) error
}

type hotelService struct {
	store  repository.Store
	logger *zap.Logger
}

var _ HotelService = (*hotelService)(nil)

func NewHotelService(store repository.Store, logger *zap.Logger) *hotelService {
	return &hotelService{
		store:  store,
		logger: logger,
	}
}

func (in HotelInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return service.Invalid("hotel name is required")
	}
	return nil
}

func (s *hotelService) CreateHotel(ctx context.Context, caller auth.Caller, in HotelInput) (*model.Hotel, error) {
	if !policy.Can(caller.Actor(), policy.ActionCreate, policy.ResourceHotel, 0) {
		return nil, service.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	hotel := &model.Hotel{Name: in.Name, Address: in.Address, Phone: in.Phone, Email: in.Email}
	if err := s.store.Hotels().Create(ctx, hotel); err != nil {
		return nil, translate(err, nil, "create hotel")
	}
	s.logger.Info("hotel created", zap.Uint("hotel_id", hotel.ID))
	return hotel, nil
}

func (s *hotelService) GetHotel(ctx context.Context, caller auth.Caller, id uint) (*model.Hotel, error) {
	hotel, err := s.store.Hotels().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrHotelNotFound, "load hotel")
	}
	if !policy.Can(caller.Actor(), policy.ActionRead, policy.ResourceHotel, 0) {
		return nil, service.ErrForbidden
	}
	return hotel, nil
}

func (s *hotelService) ListHotels(ctx context.Context, caller auth.Caller) ([]model.Hotel, error) {
	if policy.ListScope(caller.Actor(), policy.ResourceHotel) != policy.ScopeAll {
		return []model.Hotel{}, nil
	}
	hotels, err := s.store.Hotels().ListAll(ctx)
	if err != nil {
		return nil, translate(err, nil, "list hotels")
	}
	return hotels, nil
}

func (s *hotelService) UpdateHotel(ctx context.Context, caller auth.Caller, id uint, in HotelInput) (*model.Hotel, error) {
	hotel, err := s.store.Hotels().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrHotelNotFound, "load hotel")
	}
	if !policy.Can(caller.Actor(), policy.ActionUpdate, policy.ResourceHotel, 0) {
		return nil, service.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	hotel.Name, hotel.Address, hotel.Phone, hotel.Email = in.Name, in.Address, in.Phone, in.Email
	if err := s.store.Hotels().Save(ctx, hotel); err != nil {
		return nil, translate(err, service.ErrHotelNotFound, "save hotel")
	}
	return hotel, nil
}

// DeleteHotel refuses while rooms or management links still point at the hotel.
func (s *hotelService) DeleteHotel(ctx context.Context, caller auth.Caller, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Hotels().ExistsByID(ctx, id)
		if err != nil {
			return translate(err, nil, "load hotel")
		}
		if !exists {
			return service.ErrHotelNotFound
		}
		if !policy.Can(caller.Actor(), policy.ActionDelete, policy.ResourceHotel, 0) {
			return service.ErrForbidden
		}
		rooms, err := tx.Rooms().Count(ctx, repository.RoomFilter{HotelID: id})
		if err != nil {
			return translate(err, nil, "count rooms")
		}
		links, err := tx.Managements().Count(ctx, repository.ManagementFilter{HotelID: id})
		if err != nil {
			return translate(err, nil, "count managements")
		}
		if rooms > 0 || links > 0 {
			return service.ErrHasDependents
		}
		if err := tx.Hotels().Delete(ctx, id); err != nil {
			return translate(err, service.ErrHotelNotFound, "delete hotel")
		}
		s.logger.Info("hotel deleted", zap.Uint("hotel_id", id))
		return nil
	})
}
