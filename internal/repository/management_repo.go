package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/model"
)

type ManagementFilter struct {
	HotelID uint
	UserID  uint
}

type ManagementRepo interface {
	Create(ctx context.Context, m *model.Management) error
	Save(ctx context.Context, m *model.Management) error
	GetByID(ctx context.Context, id uint) (*model.Management, error)
	List(ctx context.Context, filter ManagementFilter) ([]model.Management, error)
	Count(ctx context.Context, filter ManagementFilter) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type managementRepoGorm struct {
	db *gorm.DB
}

var _ ManagementRepo = (*managementRepoGorm)(nil)

func NewManagementRepoGorm(db *gorm.DB) *managementRepoGorm {
	return &managementRepoGorm{
		db: db,
	}
}

func (r *managementRepoGorm) WithTx(tx *gorm.DB) *managementRepoGorm {
	return &managementRepoGorm{
		db: tx,
	}
}

func (r *managementRepoGorm) Create(ctx context.Context, m *model.Management) error {
	return gorm.G[model.Management](r.db).Create(ctx, m)
}

func (r *managementRepoGorm) Save(ctx context.Context, m *model.Management) error {
	res := r.db.WithContext(ctx).
		Model(m).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *managementRepoGorm) GetByID(ctx context.Context, id uint) (*model.Management, error) {
	m, err := gorm.G[model.Management](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *managementRepoGorm) filtered(ctx context.Context, filter ManagementFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Management{})
	if filter.HotelID != 0 {
		q = q.Where("hotel_id = ?", filter.HotelID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	return q
}

func (r *managementRepoGorm) List(ctx context.Context, filter ManagementFilter) ([]model.Management, error) {
	var ms []model.Management
	if err := r.filtered(ctx, filter).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *managementRepoGorm) Count(ctx context.Context, filter ManagementFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, filter).Count(&n).Error
	return n, err
}

func (r *managementRepoGorm) Delete(ctx context.Context, id uint) error {
	n, err := gorm.G[model.Management](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
