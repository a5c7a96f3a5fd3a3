package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/model"
)

type RoomFilter struct {
	HotelID     uint
	IsAvailable *bool
	RoomType    string
}

type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	// UpdateDetails writes every column except is_available.
	UpdateDetails(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id uint) (*model.Room, error)
	ExistsByRoomNumber(ctx context.Context, roomNumber string) (bool, error)
	List(ctx context.Context, filter RoomFilter) ([]model.Room, error)
	Count(ctx context.Context, filter RoomFilter) (int64, error)
	// Hold flips is_available from true to false. It reports false when the
	// room was already held (or does not exist) and nothing changed.
	Hold(ctx context.Context, id uint) (bool, error)
	Release(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type roomRepoGorm struct {
	db *gorm.DB
}

var _ RoomRepo = (*roomRepoGorm)(nil)

func NewRoomRepoGorm(db *gorm.DB) *roomRepoGorm {
	return &roomRepoGorm{
		db: db,
	}
}

func (r *roomRepoGorm) WithTx(tx *gorm.DB) *roomRepoGorm {
	return &roomRepoGorm{
		db: tx,
	}
}

func (r *roomRepoGorm) Create(ctx context.Context, room *model.Room) error {
	return gorm.G[model.Room](r.db).Create(ctx, room)
}

func (r *roomRepoGorm) UpdateDetails(ctx context.Context, room *model.Room) error {
	res := r.db.WithContext(ctx).
		Model(&model.Room{ID: room.ID}).
		Select("RoomNumber", "RoomType", "Capacity", "PricePerNight", "HotelID", "UpdatedAt").
		Updates(room)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *roomRepoGorm) GetByID(ctx context.Context, id uint) (*model.Room, error) {
	room, err := gorm.G[model.Room](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepoGorm) ExistsByRoomNumber(ctx context.Context, roomNumber string) (bool, error) {
	n, err := gorm.G[model.Room](r.db).Where("room_number = ?", roomNumber).Count(ctx, "*")
	return n > 0, err
}

func (r *roomRepoGorm) filtered(ctx context.Context, filter RoomFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Room{})
	if filter.HotelID != 0 {
		q = q.Where("hotel_id = ?", filter.HotelID)
	}
	if filter.IsAvailable != nil {
		q = q.Where("is_available = ?", *filter.IsAvailable)
	}
	if filter.RoomType != "" {
		q = q.Where("room_type = ?", filter.RoomType)
	}
	return q
}

func (r *roomRepoGorm) List(ctx context.Context, filter RoomFilter) ([]model.Room, error) {
	var rooms []model.Room
	if err := r.filtered(ctx, filter).Order("id").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepoGorm) Count(ctx context.Context, filter RoomFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, filter).Count(&n).Error
	return n, err
}

func (r *roomRepoGorm) Hold(ctx context.Context, id uint) (bool, error) {
	n, err := gorm.G[model.Room](r.db).
		Where("id = ? AND is_available = ?", id, true).
		Update(ctx, "is_available", false)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *roomRepoGorm) Release(ctx context.Context, id uint) error {
	_, err := gorm.G[model.Room](r.db).Where("id = ?", id).Update(ctx, "is_available", true)
	return err
}

func (r *roomRepoGorm) Delete(ctx context.Context, id uint) error {
	n, err := gorm.G[model.Room](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
