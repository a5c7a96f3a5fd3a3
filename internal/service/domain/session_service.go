package domain

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

// TokenDenylist remembers logged-out tokens until they expire.
// *cache.RedisCache implements it.
type TokenDenylist interface {
	RevokeToken(ctx context.Context, tokenID string, until time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type SessionService interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Register(ctx context.Context, in UserInput) (*Session, error)
	Logout(ctx context.Context, caller auth.Caller) error
	// ResolveCaller turns a bearer token into the caller identity. The role
	// is read from the store so role changes apply to live tokens.
	ResolveCaller(ctx context.Context, token string) (auth.Caller, error)
}

type sessionService struct {
	store    repository.Store
	accounts AccountService
	tokens   *auth.TokenManager
	denylist TokenDenylist
	logger   *zap.Logger
}

var _ SessionService = (*sessionService)(nil)

// NewSessionService builds the login/identity service. denylist may be nil,
// in which case logout cannot revoke tokens.
func NewSessionService(store repository.Store, accounts AccountService, tokens *auth.TokenManager, denylist TokenDenylist, logger *zap.Logger) *sessionService {
	return &sessionService{
		store:    store,
		accounts: accounts,
		tokens:   tokens,
		denylist: denylist,
		logger:   logger,
	}
}

func (s *sessionService) issue(user *model.User) (*Session, error) {
	token, caller, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, service.Internal("issue token", err)
	}
	return &Session{Token: token, ExpiresAt: caller.ExpiresAt, User: user}, nil
}

func (s *sessionService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			s.logger.Info("login rejected", zap.String("username", username))
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *sessionService) Register(ctx context.Context, in UserInput) (*Session, error) {
	user, err := s.accounts.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *sessionService) Logout(ctx context.Context, caller auth.Caller) error {
	if s.denylist == nil {
		s.logger.Warn("logout without token denylist, token stays valid until expiry", zap.Uint("user_id", caller.UserID))
		return nil
	}
	if err := s.denylist.RevokeToken(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return service.Internal("revoke token", err)
	}
	return nil
}

func (s *sessionService) ResolveCaller(ctx context.Context, token string) (auth.Caller, error) {
	caller, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Caller{}, service.ErrUnauthenticated
	}
	if s.denylist != nil {
		revoked, err := s.denylist.IsTokenRevoked(ctx, caller.TokenID)
		if err != nil {
			return auth.Caller{}, service.Internal("check token", err)
		}
		if revoked {
			return auth.Caller{}, service.ErrUnauthenticated
		}
	}

	user, err := s.store.Users().GetByID(ctx, caller.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.Caller{}, service.ErrUnauthenticated
	}
	if err != nil {
		return auth.Caller{}, translate(err, nil, "load caller")
	}
	caller.Username = user.Username
	caller.Role = user.Role
	return caller, nil
}
