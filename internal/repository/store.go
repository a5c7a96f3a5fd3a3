package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a service can run several writes inside
// one transaction.
type Store interface {
	Users() UserRepo
	Hotels() HotelRepo
	Rooms() RoomRepo
	Bookings() BookingRepo
	Managements() ManagementRepo
	// Transaction runs fn against a transactional view of the store. fn's
	// writes are committed when it returns nil and rolled back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db          *gorm.DB
	users       *userRepoGorm
	hotels      *hotelRepoGorm
	rooms       *roomRepoGorm
	bookings    *bookingRepoGorm
	managements *managementRepoGorm
}

var _ Store = (*gormStore)(nil)

func NewGormStore(db *gorm.DB) *gormStore {
	return &gormStore{
		db:          db,
		users:       NewUserRepoGorm(db),
		hotels:      NewHotelRepoGorm(db),
		rooms:       NewRoomRepoGorm(db),
		bookings:    NewBookingRepoGorm(db),
		managements: NewManagementRepoGorm(db),
	}
}

func (s *gormStore) withTx(tx *gorm.DB) *gormStore {
	return &gormStore{
		db:          tx,
		users:       s.users.WithTx(tx),
		hotels:      s.hotels.WithTx(tx),
		rooms:       s.rooms.WithTx(tx),
		bookings:    s.bookings.WithTx(tx),
		managements: s.managements.WithTx(tx),
	}
}

func (s *gormStore) Users() UserRepo             { return s.users }
func (s *gormStore) Hotels() HotelRepo           { return s.hotels }
func (s *gormStore) Rooms() RoomRepo             { return s.rooms }
func (s *gormStore) Bookings() BookingRepo       { return s.bookings }
func (s *gormStore) Managements() ManagementRepo { return s.managements }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.withTx(tx))
	})
}
