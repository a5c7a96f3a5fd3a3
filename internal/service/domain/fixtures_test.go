package domain

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/repository"
)

type fixture struct {
	store    *repository.MemoryStore
	accounts *accountService
	admin    auth.Caller
	staff    auth.Caller
	u1       auth.Caller
	u2       auth.Caller
	hotel    *model.Hotel
	room     *model.Room
}

func callerOf(u *model.User) auth.Caller {
	return auth.Caller{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	accounts := NewAccountService(store, auth.NewPasswordHasher(bcrypt.MinCost), zap.NewNop())

	mk := func(username string, role model.Role) auth.Caller {
		u, err := accounts.create(ctx, UserInput{
			Username: username,
			Password: "password123",
			Email:    username + "@example.com",
			Role:     role,
		})
		require.NoError(t, err)
		return callerOf(u)
	}

	f := &fixture{
		store:    store,
		accounts: accounts,
		admin:    mk("admin", model.RoleAdmin),
		staff:    mk("staff", model.RoleStaff),
		u1:       mk("user1", model.RoleUser),
		u2:       mk("user2", model.RoleUser),
	}
	f.hotel = &model.Hotel{Name: "Grand"}
	require.NoError(t, store.Hotels().Create(ctx, f.hotel))
	f.room = f.addRoom(t, "R1", "100.00")
	return f
}

func (f *fixture) addRoom(t *testing.T, number, price string) *model.Room {
	t.Helper()
	room := &model.Room{
		RoomNumber:    number,
		RoomType:      "DOUBLE",
		Capacity:      2,
		PricePerNight: decimal.RequireFromString(price),
		IsAvailable:   true,
		HotelID:       f.hotel.ID,
	}
	require.NoError(t, f.store.Rooms().Create(context.Background(), room))
	return room
}

func (f *fixture) roomAvailable(t *testing.T, id uint) bool {
	t.Helper()
	room, err := f.store.Rooms().GetByID(context.Background(), id)
	require.NoError(t, err)
	return room.IsAvailable
}

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}
