package domain

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/policy"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

type RoomInput struct {
	RoomNumber    string
	RoomType      string
	Capacity      int
	PricePerNight decimal.Decimal
	HotelID       uint
}

type RoomService interface {
	CreateRoom(ctx context.Context, caller auth.Caller, in RoomInput) (*model.Room, error)
	GetRoom(ctx context.Context, caller auth.Caller, id uint) (*model.Room, error)
	ListRooms(ctx context.Context, caller auth.Caller, filter repository.RoomFilter) ([]model.Room, error)
	UpdateRoom(ctx context.Context, caller auth.Caller, id uint, in RoomInput) (*model.Room, error)
	DeleteRoom(ctx context.Context, caller auth.Caller, id uint) error
}

type roomService struct {
	store  repository.Store
	logger *zap.Logger
}

var _ RoomService = (*roomService)(nil)

func NewRoomService(store repository.Store, logger *zap.Logger) *roomService {
	return &roomService{
		store:  store,
		logger: logger,
	}
}

func (in RoomInput) validate() error {
	if strings.TrimSpace(in.RoomNumber) == "" || len(in.RoomNumber) > 20 {
		return service.Invalid("room number is required and at most 20 characters")
	}
	if strings.TrimSpace(in.RoomType) == "" {
		return service.Invalid("room type is required")
	}
	if in.Capacity <= 0 {
		return service.Invalid("capacity must be positive")
	}
	if !in.PricePerNight.IsPositive() {
		return service.Invalid("price per night must be greater than zero")
	}
	if in.PricePerNight.Exponent() < -2 {
		return service.Invalid("price per night has at most two decimal places")
	}
	return nil
}

// checkRefs verifies the hotel exists and the room number is free.
// currentNumber is the room's number before the change, empty on create.
func checkRefs(ctx context.Context, tx repository.Store, in RoomInput, currentNumber string) error {
	exists, err := tx.Hotels().ExistsByID(ctx, in.HotelID)
	if err != nil {
		return translate(err, nil, "load hotel")
	}
	if !exists {
		return service.ErrHotelNotFound
	}
	if in.RoomNumber == currentNumber {
		return nil
	}
	taken, err := tx.Rooms().ExistsByRoomNumber(ctx, in.RoomNumber)
	if err != nil {
		return translate(err, nil, "check room number")
	}
	if taken {
		return service.ErrRoomNumberTaken
	}
	return nil
}

func (s *roomService) CreateRoom(ctx context.Context, caller auth.Caller, in RoomInput) (*model.Room, error) {
	if !policy.Can(caller.Actor(), policy.ActionCreate, policy.ResourceRoom, 0) {
		return nil, service.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var room *model.Room
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := checkRefs(ctx, tx, in, ""); err != nil {
			return err
		}
		room = &model.Room{
			RoomNumber:    in.RoomNumber,
			RoomType:      in.RoomType,
			Capacity:      in.Capacity,
			PricePerNight: in.PricePerNight,
			IsAvailable:   true,
			HotelID:       in.HotelID,
		}
		return translate(tx.Rooms().Create(ctx, room), nil, "create room")
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("room created", zap.Uint("room_id", room.ID), zap.Uint("hotel_id", room.HotelID))
	return room, nil
}

func (s *roomService) GetRoom(ctx context.Context, caller auth.Caller, id uint) (*model.Room, error) {
	room, err := s.store.Rooms().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrRoomNotFound, "load room")
	}
	if !policy.Can(caller.Actor(), policy.ActionRead, policy.ResourceRoom, 0) {
		return nil, service.ErrForbidden
	}
	return room, nil
}

func (s *roomService) ListRooms(ctx context.Context, caller auth.Caller, filter repository.RoomFilter) ([]model.Room, error) {
	if policy.ListScope(caller.Actor(), policy.ResourceRoom) != policy.ScopeAll {
		return []model.Room{}, nil
	}
	rooms, err := s.store.Rooms().List(ctx, filter)
	if err != nil {
		return nil, translate(err, nil, "list rooms")
	}
	return rooms, nil
}

// UpdateRoom changes the room's details. Availability is left to the booking
// engine and cannot be set here.
func (s *roomService) UpdateRoom(ctx context.Context, caller auth.Caller, id uint, in RoomInput) (*model.Room, error) {
	var room *model.Room
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		room, err = tx.Rooms().GetByID(ctx, id)
		if err != nil {
			return translate(err, service.ErrRoomNotFound, "load room")
		}
		if !policy.Can(caller.Actor(), policy.ActionUpdate, policy.ResourceRoom, 0) {
			return service.ErrForbidden
		}
		if err := in.validate(); err != nil {
			return err
		}
		if err := checkRefs(ctx, tx, in, room.RoomNumber); err != nil {
			return err
		}
		room.RoomNumber = in.RoomNumber
		room.RoomType = in.RoomType
		room.Capacity = in.Capacity
		room.PricePerNight = in.PricePerNight
		room.HotelID = in.HotelID
		if err := tx.Rooms().UpdateDetails(ctx, room); err != nil {
			return translate(err, service.ErrRoomNotFound, "update room")
		}
		room, err = tx.Rooms().GetByID(ctx, id)
		return translate(err, service.ErrRoomNotFound, "reload room")
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom refuses while any booking references the room.
func (s *roomService) DeleteRoom(ctx context.Context, caller auth.Caller, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Rooms().GetByID(ctx, id); err != nil {
			return translate(err, service.ErrRoomNotFound, "load room")
		}
		if !policy.Can(caller.Actor(), policy.ActionDelete, policy.ResourceRoom, 0) {
			return service.ErrForbidden
		}
		bookings, err := tx.Bookings().Count(ctx, repository.BookingFilter{RoomID: id})
		if err != nil {
			return translate(err, nil, "count bookings")
		}
		if bookings > 0 {
			return service.ErrHasDependents
		}
		if err := tx.Rooms().Delete(ctx, id); err != nil {
			return translate(err, service.ErrRoomNotFound, "delete room")
		}
		s.logger.Info("room deleted", zap.Uint("room_id", id))
		return nil
	})
}
