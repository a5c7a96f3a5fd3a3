package domain

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/policy"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type UserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	Role      model.Role
}

type UserSearch struct {
	FirstName string
	LastName  string
	Roles     []model.Role
}

type AccountService interface {
	Register(ctx context.Context, in UserInput) (*model.User, error)
	CreateUser(ctx context.Context, caller auth.Caller, in UserInput) (*model.User, error)
	GetUser(ctx context.Context, caller auth.Caller, id uint) (*model.User, error)
	ListUsers(ctx context.Context, caller auth.Caller) ([]model.User, error)
	SearchUsers(ctx context.Context, caller auth.Caller, q UserSearch) ([]model.User, error)
	UpdateUser(ctx context.Context, caller auth.Caller, id uint, in UserInput) (*model.User, error)
	DeleteUser(ctx context.Context, caller auth.Caller, id uint) error
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	EnsureAdmin(ctx context.Context, username, password, email string) error
}

type accountService struct {
	store  repository.Store
	hasher PasswordHasher
	logger *zap.Logger
}

var _ AccountService = (*accountService)(nil)

func NewAccountService(store repository.Store, hasher PasswordHasher, logger *zap.Logger) *accountService {
	return &accountService{
		store:  store,
		hasher: hasher,
		logger: logger,
	}
}

func validateProfile(in UserInput) error {
	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 50 {
		return service.Invalid("username must be between 3 and 50 characters")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") || len(in.Email) > 100 {
		return service.Invalid("email must be a valid address of at most 100 characters")
	}
	if utf8.RuneCountInString(in.FirstName) > 50 || utf8.RuneCountInString(in.LastName) > 50 {
		return service.Invalid("names must be at most 50 characters")
	}
	if len(in.Phone) > 20 {
		return service.Invalid("phone must be at most 20 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return service.Invalid("password must be at least 6 characters")
	}
	// bcrypt rejects longer input.
	if len(password) > 72 {
		return service.Invalid("password must be at most 72 bytes")
	}
	return nil
}

func (s *accountService) Register(ctx context.Context, in UserInput) (*model.User, error) {
	in.Role = model.RoleUser
	return s.create(ctx, in)
}

func (s *accountService) CreateUser(ctx context.Context, caller auth.Caller, in UserInput) (*model.User, error) {
	if !policy.Can(caller.Actor(), policy.ActionCreate, policy.ResourceUser, 0) {
		return nil, service.ErrForbidden
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	return s.create(ctx, in)
}

func (s *accountService) create(ctx context.Context, in UserInput) (*model.User, error) {
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, service.Invalid("unknown role %q", in.Role)
	}

	users := s.store.Users()
	taken, err := users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, translate(err, nil, "check username")
	}
	if taken {
		return nil, service.ErrUsernameTaken
	}
	taken, err = users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, translate(err, nil, "check email")
	}
	if taken {
		return nil, service.ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, service.Internal("hash password", err)
	}
	user := &model.User{
		Username:       in.Username,
		HashedPassword: hashed,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Address:        in.Address,
		Role:           in.Role,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, translate(err, nil, "create user")
	}

	s.logger.Info("user created", zap.Uint("user_id", user.ID), zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *accountService) GetUser(ctx context.Context, caller auth.Caller, id uint) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrUserNotFound, "load user")
	}
	if !policy.Can(caller.Actor(), policy.ActionRead, policy.ResourceUser, user.ID) {
		return nil, service.ErrForbidden
	}
	return user, nil
}

func (s *accountService) ListUsers(ctx context.Context, caller auth.Caller) ([]model.User, error) {
	switch policy.ListScope(caller.Actor(), policy.ResourceUser) {
	case policy.ScopeAll:
		users, err := s.store.Users().List(ctx, repository.UserFilter{})
		if err != nil {
			return nil, translate(err, nil, "list users")
		}
		return users, nil
	case policy.ScopeOwn:
		self, err := s.store.Users().GetByID(ctx, caller.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.User{}, nil
		}
		if err != nil {
			return nil, translate(err, nil, "load user")
		}
		return []model.User{*self}, nil
	}
	return []model.User{}, nil
}

// SearchUsers is admin-only; everyone else gets an empty result.
func (s *accountService) SearchUsers(ctx context.Context, caller auth.Caller, q UserSearch) ([]model.User, error) {
	if !policy.Can(caller.Actor(), policy.ActionSearch, policy.ResourceUser, 0) {
		return []model.User{}, nil
	}
	users, err := s.store.Users().List(ctx, repository.UserFilter{
		FirstName: q.FirstName,
		LastName:  q.LastName,
		Roles:     q.Roles,
	})
	if err != nil {
		return nil, translate(err, nil, "search users")
	}
	return users, nil
}

// UpdateUser overwrites the profile. Uniqueness is checked only for values
// that changed, the password is re-hashed only when a new one is supplied and
// an empty role keeps the current one.
func (s *accountService) UpdateUser(ctx context.Context, caller auth.Caller, id uint, in UserInput) (*model.User, error) {
	users := s.store.Users()
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, service.ErrUserNotFound, "load user")
	}
	if !policy.Can(caller.Actor(), policy.ActionUpdate, policy.ResourceUser, user.ID) {
		return nil, service.ErrForbidden
	}
	if in.Role == "" {
		in.Role = user.Role
	}
	if in.Role != user.Role {
		if !policy.Can(caller.Actor(), policy.ActionChangeRole, policy.ResourceUser, user.ID) {
			return nil, service.ErrForbidden
		}
		if !in.Role.Valid() {
			return nil, service.Invalid("unknown role %q", in.Role)
		}
	}
	if err := validateProfile(in); err != nil {
		return nil, err
	}

	if in.Username != user.Username {
		taken, err := users.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return nil, translate(err, nil, "check username")
		}
		if taken {
			return nil, service.ErrUsernameTaken
		}
	}
	if in.Email != user.Email {
		taken, err := users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, translate(err, nil, "check email")
		}
		if taken {
			return nil, service.ErrEmailTaken
		}
	}

	user.Username = in.Username
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email
	user.Phone = in.Phone
	user.Address = in.Address
	user.Role = in.Role
	if in.Password != "" {
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, service.Internal("hash password", err)
		}
		user.HashedPassword = hashed
	}

	if err := users.Save(ctx, user); err != nil {
		return nil, translate(err, service.ErrUserNotFound, "save user")
	}
	s.logger.Info("user updated", zap.Uint("user_id", user.ID))
	return user, nil
}

// DeleteUser refuses to remove a user still referenced by bookings or
// management links.
func (s *accountService) DeleteUser(ctx context.Context, caller auth.Caller, id uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return translate(err, service.ErrUserNotFound, "load user")
		}
		if !policy.Can(caller.Actor(), policy.ActionDelete, policy.ResourceUser, user.ID) {
			return service.ErrForbidden
		}
		bookings, err := tx.Bookings().Count(ctx, repository.BookingFilter{UserID: id})
		if err != nil {
			return translate(err, nil, "count bookings")
		}
		links, err := tx.Managements().Count(ctx, repository.ManagementFilter{UserID: id})
		if err != nil {
			return translate(err, nil, "count managements")
		}
		if bookings > 0 || links > 0 {
			return service.ErrHasDependents
		}
		return translate(tx.Users().Delete(ctx, id), service.ErrUserNotFound, "delete user")
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Uint("user_id", id))
	return nil
}

func (s *accountService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, service.ErrBadCredentials, "load user")
	}
	if !s.hasher.Verify(user.HashedPassword, password) {
		return nil, service.ErrBadCredentials
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator when no user has username.
func (s *accountService) EnsureAdmin(ctx context.Context, username, password, email string) error {
	exists, err := s.store.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return translate(err, nil, "check admin")
	}
	if exists {
		return nil
	}
	_, err = s.create(ctx, UserInput{
		Username:  username,
		Password:  password,
		Email:     email,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      model.RoleAdmin,
	})
	return err
}
