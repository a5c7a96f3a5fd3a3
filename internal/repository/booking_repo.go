package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/model"
)

// BookingFilter narrows a booking listing. Zero values are ignored; date
// bounds are inclusive.
type BookingFilter struct {
	UserID       uint
	RoomID       uint
	Status       model.BookingStatus
	CheckInFrom  time.Time
	CheckInTo    time.Time
	CheckOutFrom time.Time
	CheckOutTo   time.Time
}

type BookingRepo interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uint) (*model.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	Count(ctx context.Context, filter BookingFilter) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status model.BookingStatus) error
	Delete(ctx context.Context, id uint) error
}

type bookingRepoGorm struct {
	db *gorm.DB
}

var _ BookingRepo = (*bookingRepoGorm)(nil)

func NewBookingRepoGorm(db *gorm.DB) *bookingRepoGorm {
	return &bookingRepoGorm{
		db: db,
	}
}

func (r *bookingRepoGorm) WithTx(tx *gorm.DB) *bookingRepoGorm {
	return &bookingRepoGorm{
		db: tx,
	}
}

func (r *bookingRepoGorm) Create(ctx context.Context, booking *model.Booking) error {
	return gorm.G[model.Booking](r.db).Create(ctx, booking)
}

func (r *bookingRepoGorm) GetByID(ctx context.Context, id uint) (*model.Booking, error) {
	booking, err := gorm.G[model.Booking](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepoGorm) filtered(ctx context.Context, filter BookingFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Booking{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.RoomID != 0 {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if !filter.CheckInFrom.IsZero() {
		q = q.Where("check_in_date >= ?", filter.CheckInFrom)
	}
	if !filter.CheckInTo.IsZero() {
		q = q.Where("check_in_date <= ?", filter.CheckInTo)
	}
	if !filter.CheckOutFrom.IsZero() {
		q = q.Where("check_out_date >= ?", filter.CheckOutFrom)
	}
	if !filter.CheckOutTo.IsZero() {
		q = q.Where("check_out_date <= ?", filter.CheckOutTo)
	}
	return q
}

func (r *bookingRepoGorm) List(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := r.filtered(ctx, filter).Order("id").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepoGorm) Count(ctx context.Context, filter BookingFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, filter).Count(&n).Error
	return n, err
}

func (r *bookingRepoGorm) UpdateStatus(ctx context.Context, id uint, status model.BookingStatus) error {
	n, err := gorm.G[model.Booking](r.db).Where("id = ?", id).Update(ctx, "status", status)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookingRepoGorm) Delete(ctx context.Context, id uint) error {
	n, err := gorm.G[model.Booking](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
