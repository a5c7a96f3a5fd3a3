package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/model"
)

type UserFilter struct {
	FirstName string
	LastName  string
	Roles     []model.Role
}

type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	Save(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, error)
	Delete(ctx context.Context, id uint) error
}

type userRepoGorm struct {
	db *gorm.DB
}

var _ UserRepo = (*userRepoGorm)(nil)

func NewUserRepoGorm(db *gorm.DB) *userRepoGorm {
	return &userRepoGorm{
		db: db,
	}
}

func (r *userRepoGorm) WithTx(tx *gorm.DB) *userRepoGorm {
	return &userRepoGorm{
		db: tx,
	}
}

func (r *userRepoGorm) Create(ctx context.Context, user *model.User) error {
	return gorm.G[model.User](r.db).Create(ctx, user)
}

// Save overwrites an existing row. It never inserts: a missing row is
// gorm.ErrRecordNotFound.
func (r *userRepoGorm) Save(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).
		Model(user).
		Select("*").
		Omit("ID", "CreatedAt").
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepoGorm) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := gorm.G[model.User](r.db).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepoGorm) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := gorm.G[model.User](r.db).Where("username = ?", username).First(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepoGorm) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := gorm.G[model.User](r.db).Where("email = ?", email).First(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepoGorm) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	n, err := gorm.G[model.User](r.db).Where("username = ?", username).Count(ctx, "*")
	return n > 0, err
}

func (r *userRepoGorm) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := gorm.G[model.User](r.db).Where("email = ?", email).Count(ctx, "*")
	return n > 0, err
}

func (r *userRepoGorm) List(ctx context.Context, filter UserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.FirstName != "" {
		q = q.Where("first_name = ?", filter.FirstName)
	}
	if filter.LastName != "" {
		q = q.Where("last_name = ?", filter.LastName)
	}
	if len(filter.Roles) > 0 {
		q = q.Where("role IN ?", filter.Roles)
	}
	var users []model.User
	if err := q.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepoGorm) Delete(ctx context.Context, id uint) error {
	n, err := gorm.G[model.User](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
