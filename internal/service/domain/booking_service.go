package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/cache"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/policy"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

// RoomLocker serializes booking attempts on one room before the database
// transaction starts. *cache.RedisCache implements it.
type RoomLocker interface {
	LockRoom(ctx context.Context, roomID uint, ttl time.Duration) (string, error)
	UnlockRoom(ctx context.Context, roomID uint, token string) error
}

type CreateBookingInput struct {
	// UserID defaults to the caller when zero.
	UserID   uint
	RoomID   uint
	CheckIn  time.Time
	CheckOut time.Time
}

type BookingService interface {
	CreateBooking(ctx context.Context, caller auth.Caller, in CreateBookingInput) (*model.Booking, error)
	GetBooking(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error)
	ListBookings(ctx context.Context, caller auth.Caller, filter repository.BookingFilter) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, caller auth.Caller, id uint, status model.BookingStatus) (*model.Booking, error)
	CancelBooking(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error)
	DeleteBooking(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error)
}

type bookingService struct {
	store    repository.Store
	locker   RoomLocker
	lockTTL  time.Duration
	lockWait time.Duration
	logger   *zap.Logger
}

const (
	defaultLockWait   = 250 * time.Millisecond
	lockRetryInterval = 20 * time.Millisecond
)

var _ BookingService = (*bookingService)(nil)

// NewBookingService builds the booking engine. locker may be nil.
func NewBookingService(store repository.Store, locker RoomLocker, lockTTL time.Duration, logger *zap.Logger) *bookingService {
	return &bookingService{
		store:    store,
		locker:   locker,
		lockTTL:  lockTTL,
		lockWait: defaultLockWait,
		logger:   logger,
	}
}

// lockRoom polls while another request holds the room lock, for at most
// lockWait. ErrRoomLocked after that is a contention signal: the holder may
// still fail and leave the room free.
func (s *bookingService) lockRoom(ctx context.Context, roomID uint) (string, error) {
	deadline := time.Now().Add(s.lockWait)
	for {
		token, err := s.locker.LockRoom(ctx, roomID, s.lockTTL)
		if !errors.Is(err, cache.ErrRoomLocked) || !time.Now().Before(deadline) {
			return token, err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts whole days between two calendar dates.
func Nights(checkIn, checkOut time.Time) int64 {
	return int64(dateOnly(checkOut).Sub(dateOnly(checkIn)) / (24 * time.Hour))
}

func TotalPrice(pricePerNight decimal.Decimal, nights int64) decimal.Decimal {
	return pricePerNight.Mul(decimal.NewFromInt(nights))
}

func (s *bookingService) CreateBooking(ctx context.Context, caller auth.Caller, in CreateBookingInput) (*model.Booking, error) {
	checkIn, checkOut := dateOnly(in.CheckIn), dateOnly(in.CheckOut)
	if !checkIn.Before(checkOut) {
		return nil, service.ErrInvalidDateRange
	}
	userID := in.UserID
	if userID == 0 {
		userID = caller.UserID
	}
	if !policy.Can(caller.Actor(), policy.ActionCreate, policy.ResourceBooking, userID) {
		return nil, service.ErrForbidden
	}

	if s.locker != nil {
		token, err := s.lockRoom(ctx, in.RoomID)
		switch {
		case errors.Is(err, cache.ErrRoomLocked):
			return nil, service.ErrRoomUnavailable
		case err != nil:
			s.logger.Warn("room lock unavailable, relying on database hold", zap.Uint("room_id", in.RoomID), zap.Error(err))
		default:
			defer func() {
				if err := s.locker.UnlockRoom(context.WithoutCancel(ctx), in.RoomID, token); err != nil {
					s.logger.Warn("failed to release room lock", zap.Uint("room_id", in.RoomID), zap.Error(err))
				}
			}()
		}
	}

	var booking *model.Booking
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return translate(err, service.ErrUserNotFound, "load user")
		}
		room, err := tx.Rooms().GetByID(ctx, in.RoomID)
		if err != nil {
			return translate(err, service.ErrRoomNotFound, "load room")
		}
		if !room.IsAvailable {
			return service.ErrRoomUnavailable
		}

		held, err := tx.Rooms().Hold(ctx, room.ID)
		if err != nil {
			return translate(err, nil, "hold room")
		}
		if !held {
			return service.ErrRoomUnavailable
		}

		booking = &model.Booking{
			CheckInDate:  datatypes.Date(checkIn),
			CheckOutDate: datatypes.Date(checkOut),
			TotalPrice:   TotalPrice(room.PricePerNight, Nights(checkIn, checkOut)),
			Status:       model.BookingPending,
			UserID:       userID,
			RoomID:       room.ID,
		}
		return translate(tx.Bookings().Create(ctx, booking), nil, "create booking")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("user_id", booking.UserID),
		zap.Uint("room_id", booking.RoomID),
		zap.String("total_price", booking.TotalPrice.StringFixed(2)))
	return booking, nil
}

// loadAuthorized fetches a booking and checks action against its owner.
// A missing booking is reported before any authorization decision.
func loadAuthorized(ctx context.Context, repo repository.BookingRepo, caller auth.Caller, id uint, action policy.Action) (*model.Booking, error) {
	booking, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrBookingNotFound, "load booking")
	}
	if !policy.Can(caller.Actor(), action, policy.ResourceBooking, booking.UserID) {
		return nil, service.ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error) {
	return loadAuthorized(ctx, s.store.Bookings(), caller, id, policy.ActionRead)
}

func (s *bookingService) ListBookings(ctx context.Context, caller auth.Caller, filter repository.BookingFilter) ([]model.Booking, error) {
	switch policy.ListScope(caller.Actor(), policy.ResourceBooking) {
	case policy.ScopeNone:
		return []model.Booking{}, nil
	case policy.ScopeOwn:
		if filter.UserID != 0 && filter.UserID != caller.UserID {
			return []model.Booking{}, nil
		}
		filter.UserID = caller.UserID
	}
	bookings, err := s.store.Bookings().List(ctx, filter)
	if err != nil {
		return nil, translate(err, nil, "list bookings")
	}
	return bookings, nil
}

// UpdateBookingStatus overwrites the status. Moving to CANCELLED frees the
// room like CancelBooking does; moving a cancelled booking back to an active
// status has to hold the room again.
func (s *bookingService) UpdateBookingStatus(ctx context.Context, caller auth.Caller, id uint, status model.BookingStatus) (*model.Booking, error) {
	if !status.Valid() {
		return nil, service.Invalid("unknown booking status %q", status)
	}

	var booking *model.Booking
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		booking, err = loadAuthorized(ctx, tx.Bookings(), caller, id, policy.ActionUpdate)
		if err != nil {
			return err
		}
		if booking.Status == status {
			return nil
		}

		switch {
		case !status.Active():
			if err := tx.Rooms().Release(ctx, booking.RoomID); err != nil {
				return translate(err, nil, "release room")
			}
		case !booking.Status.Active():
			held, err := tx.Rooms().Hold(ctx, booking.RoomID)
			if err != nil {
				return translate(err, nil, "hold room")
			}
			if !held {
				return service.ErrRoomUnavailable
			}
		}

		if err := tx.Bookings().UpdateStatus(ctx, booking.ID, status); err != nil {
			return translate(err, service.ErrBookingNotFound, "update booking status")
		}
		booking.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated", zap.Uint("booking_id", booking.ID), zap.String("status", string(status)))
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error) {
	var booking *model.Booking
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		booking, err = loadAuthorized(ctx, tx.Bookings(), caller, id, policy.ActionCancel)
		if err != nil {
			return err
		}
		if !booking.Status.Active() {
			return service.ErrAlreadyCancelled
		}
		// the room is freed before the booking is finalized
		if err := tx.Rooms().Release(ctx, booking.RoomID); err != nil {
			return translate(err, nil, "release room")
		}
		if err := tx.Bookings().UpdateStatus(ctx, booking.ID, model.BookingCancelled); err != nil {
			return translate(err, service.ErrBookingNotFound, "cancel booking")
		}
		booking.Status = model.BookingCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled", zap.Uint("booking_id", booking.ID), zap.Uint("room_id", booking.RoomID))
	return booking, nil
}

// DeleteBooking removes the booking and returns it as it was before removal.
func (s *bookingService) DeleteBooking(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error) {
	var booking *model.Booking
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		booking, err = loadAuthorized(ctx, tx.Bookings(), caller, id, policy.ActionDelete)
		if err != nil {
			return err
		}
		if booking.Status.Active() {
			if err := tx.Rooms().Release(ctx, booking.RoomID); err != nil {
				return translate(err, nil, "release room")
			}
		}
		return translate(tx.Bookings().Delete(ctx, booking.ID), service.ErrBookingNotFound, "delete booking")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking deleted", zap.Uint("booking_id", booking.ID), zap.Uint("room_id", booking.RoomID))
	return booking, nil
}
