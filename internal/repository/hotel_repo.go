package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/model"
)

type HotelRepo interface {
	Create(ctx context.Context, hotel *model.Hotel) error
	Save(ctx context.Context, hotel *model.Hotel) error
	GetByID(ctx context.Context, id uint) (*model.Hotel, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	ListAll(ctx context.Context) ([]model.Hotel, error)
	Delete(ctx context.Context, id uint) error
}

type hotelRepoGorm struct {
	db *gorm.DB
}

var _ HotelRepo = (*hotelRepoGorm)(nil)

func NewHotelRepoGorm(db *gorm.DB) *hotelRepoGorm {
	return &hotelRepoGorm{
		db: db,
	}
}

func (r *hotelRepoGorm) WithTx(tx *gorm.DB) *hotelRepoGorm {
	return &hotelRepoGorm{
		db: tx,
	}
}

func (r *hotelRepoGorm) Create(ctx context.Context, hotel *model.Hotel) error {
	return gorm.G[model.Hotel](r.db).Create(ctx, hotel)
}

func (r *hotelRepoGorm) Save(ctx context.Context, hotel *model.Hotel) error {
	res := r.db.WithContext(ctx).
		Model(hotel).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(hotel)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *hotelRepoGorm) GetByID(ctx context.Context, id uint) (*model.Hotel, error) {
	hotel, err := gorm.G[model.Hotel](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (r *hotelRepoGorm) ExistsByID(ctx context.Context, id uint) (bool, error) {
	n, err := gorm.G[model.Hotel](r.db).Where("id = ?", id).Count(ctx, "*")
	return n > 0, err
}

func (r *hotelRepoGorm) ListAll(ctx context.Context) ([]model.Hotel, error) {
	return gorm.G[model.Hotel](r.db).Order("id").Find(ctx)
}

func (r *hotelRepoGorm) Delete(ctx context.Context, id uint) error {
	n, err := gorm.G[model.Hotel](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
