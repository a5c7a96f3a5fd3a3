package domain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/cache"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service"
)

func newBookingService(f *fixture) *bookingService {
	return NewBookingService(f.store, nil, 0, zap.NewNop())
}

func book(checkIn, checkOut string) CreateBookingInput {
	return CreateBookingInput{CheckIn: date(checkIn), CheckOut: date(checkOut)}
}

func (in CreateBookingInput) on(roomID uint) CreateBookingInput {
	in.RoomID = roomID
	return in
}

func TestCreateBooking_ComputesTotalAndHoldsRoom(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)

	b, err := svc.CreateBooking(context.Background(), f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)

	assert.Equal(t, "200.00", b.TotalPrice.StringFixed(2))
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, f.u1.UserID, b.UserID)
	assert.False(t, f.roomAvailable(t, f.room.ID))
}

func TestTotalPriceIsNightlyTimesNights(t *testing.T) {
	cases := []struct {
		price    string
		in, out  string
		expected string
	}{
		{"100.00", "2024-01-01", "2024-01-02", "100.00"},
		{"89.99", "2024-02-27", "2024-03-02", "359.96"},
		{"150.50", "2023-12-30", "2024-01-06", "1053.50"},
	}
	for _, c := range cases {
		nights := Nights(date(c.in), date(c.out))
		got := TotalPrice(decimal.RequireFromString(c.price), nights)
		assert.Equal(t, c.expected, got.StringFixed(2), "%s %s..%s", c.price, c.in, c.out)
	}
}

func TestNights_IgnoresTimeOfDay(t *testing.T) {
	in := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	out := time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(2), Nights(in, out))
}

func TestCreateBooking_InvalidDateRange(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, f.u1, book("2024-01-03", "2024-01-03").on(f.room.ID))
	assert.ErrorIs(t, err, service.ErrInvalidDateRange)
	_, err = svc.CreateBooking(ctx, f.u1, book("2024-01-04", "2024-01-03").on(f.room.ID))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	assert.True(t, f.roomAvailable(t, f.room.ID))
}

func TestCreateBooking_RoomNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := newBookingService(f).CreateBooking(context.Background(), f.u1, book("2024-01-01", "2024-01-02").on(999))
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateBooking_UnavailableRoomMakesNoWrites(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, f.u2, book("2024-02-01", "2024-02-03").on(f.room.ID))
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)
	assert.ErrorIs(t, err, service.ErrConflict)

	n, err := f.store.Bookings().Count(ctx, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateBooking_ForAnotherUser(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	in := book("2024-01-01", "2024-01-02").on(f.room.ID)
	in.UserID = f.u2.UserID
	_, err := svc.CreateBooking(ctx, f.u1, in)
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.True(t, f.roomAvailable(t, f.room.ID))

	b, err := svc.CreateBooking(ctx, f.admin, in)
	require.NoError(t, err)
	assert.Equal(t, f.u2.UserID, b.UserID)
}

func TestCreateBooking_UnknownUser(t *testing.T) {
	f := newFixture(t)
	in := book("2024-01-01", "2024-01-02").on(f.room.ID)
	in.UserID = 4242
	_, err := newBookingService(f).CreateBooking(context.Background(), f.admin, in)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
	assert.True(t, f.roomAvailable(t, f.room.ID))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	for _, status := range []model.BookingStatus{model.BookingPending, model.BookingConfirmed, model.BookingCheckedIn, model.BookingCheckedOut} {
		b, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
		require.NoError(t, err)
		_, err = svc.UpdateBookingStatus(ctx, f.admin, b.ID, status)
		require.NoError(t, err)

		cancelled, err := svc.CancelBooking(ctx, f.u1, b.ID)
		require.NoError(t, err, status)
		assert.Equal(t, model.BookingCancelled, cancelled.Status)
		assert.True(t, f.roomAvailable(t, f.room.ID), status)

		stored, err := f.store.Bookings().GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, stored.Status)
	}
}

func TestCancelBooking_AlreadyCancelledMakesNoMutation(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, f.u1, first.ID)
	require.NoError(t, err)

	// someone else now holds the room
	_, err = svc.CreateBooking(ctx, f.u2, book("2024-01-05", "2024-01-06").on(f.room.ID))
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, f.u1, first.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyCancelled)
	assert.False(t, f.roomAvailable(t, f.room.ID))
}

func TestCancelBooking_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := newBookingService(f).CancelBooking(context.Background(), f.admin, 77)
	assert.ErrorIs(t, err, service.ErrBookingNotFound)
}

func TestDeleteBooking_ActiveFreesRoom(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)

	_, err = svc.DeleteBooking(ctx, f.u1, b.ID)
	require.NoError(t, err)
	assert.True(t, f.roomAvailable(t, f.room.ID))

	_, err = f.store.Bookings().GetByID(ctx, b.ID)
	assert.Error(t, err)
	_, err = svc.DeleteBooking(ctx, f.u1, b.ID)
	assert.ErrorIs(t, err, service.ErrBookingNotFound)
}

func TestDeleteBooking_CancelledLeavesRoomAlone(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	old, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, f.u1, old.ID)
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, f.u2, book("2024-01-05", "2024-01-06").on(f.room.ID))
	require.NoError(t, err)

	_, err = svc.DeleteBooking(ctx, f.u1, old.ID)
	require.NoError(t, err)
	assert.False(t, f.roomAvailable(t, f.room.ID))
}

func TestNonOwnerIsForbiddenAndNothingChanges(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)

	for _, intruder := range []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := svc.GetBooking(ctx, f.u2, b.ID); return err }},
		{"update", func() error {
			_, err := svc.UpdateBookingStatus(ctx, f.u2, b.ID, model.BookingConfirmed)
			return err
		}},
		{"cancel", func() error { _, err := svc.CancelBooking(ctx, f.u2, b.ID); return err }},
		{"delete", func() error { _, err := svc.DeleteBooking(ctx, f.staff, b.ID); return err }},
	} {
		assert.ErrorIs(t, intruder.call(), service.ErrForbidden, intruder.name)
	}

	stored, err := f.store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, stored.Status)
	assert.False(t, f.roomAvailable(t, f.room.ID))
}

func TestAdminCanActOnAnyBooking(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)

	_, err = svc.GetBooking(ctx, f.admin, b.ID)
	require.NoError(t, err)
	updated, err := svc.UpdateBookingStatus(ctx, f.admin, b.ID, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, updated.Status)
	_, err = svc.CancelBooking(ctx, f.admin, b.ID)
	require.NoError(t, err)
	_, err = svc.DeleteBooking(ctx, f.admin, b.ID)
	require.NoError(t, err)
}

func TestBookingScenario(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)
	assert.Equal(t, "200.00", first.TotalPrice.StringFixed(2))
	assert.False(t, f.roomAvailable(t, f.room.ID))

	retry := book("2024-01-05", "2024-01-06").on(f.room.ID)
	_, err = svc.CreateBooking(ctx, f.u2, retry)
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)

	cancelled, err := svc.CancelBooking(ctx, f.u1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.True(t, f.roomAvailable(t, f.room.ID))

	second, err := svc.CreateBooking(ctx, f.u2, retry)
	require.NoError(t, err)
	assert.Equal(t, "100.00", second.TotalPrice.StringFixed(2))
}

func TestUpdateBookingStatus(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)

	// free-form among active statuses
	for _, st := range []model.BookingStatus{model.BookingCheckedOut, model.BookingPending, model.BookingCheckedIn} {
		updated, err := svc.UpdateBookingStatus(ctx, f.u1, b.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, updated.Status)
		assert.False(t, f.roomAvailable(t, f.room.ID))
	}

	_, err = svc.UpdateBookingStatus(ctx, f.u1, b.ID, model.BookingStatus("LOST"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.UpdateBookingStatus(ctx, f.u1, b.ID, model.BookingCancelled)
	require.NoError(t, err)
	assert.True(t, f.roomAvailable(t, f.room.ID))

	other, err := svc.CreateBooking(ctx, f.u2, book("2024-02-01", "2024-02-02").on(f.room.ID))
	require.NoError(t, err)
	_, err = svc.UpdateBookingStatus(ctx, f.u1, b.ID, model.BookingConfirmed)
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)

	_, err = svc.CancelBooking(ctx, f.u2, other.ID)
	require.NoError(t, err)
	reactivated, err := svc.UpdateBookingStatus(ctx, f.u1, b.ID, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, reactivated.Status)
	assert.False(t, f.roomAvailable(t, f.room.ID))
}

func TestListBookings_ScopedToCaller(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()
	r2 := f.addRoom(t, "R2", "80.00")

	_, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-03").on(f.room.ID))
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, f.u2, book("2024-01-01", "2024-01-03").on(r2.ID))
	require.NoError(t, err)

	all, err := svc.ListBookings(ctx, f.admin, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListBookings(ctx, f.u1, repository.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.u1.UserID, own[0].UserID)

	foreign, err := svc.ListBookings(ctx, f.u1, repository.BookingFilter{UserID: f.u2.UserID})
	require.NoError(t, err)
	assert.Empty(t, foreign)

	byRoom, err := svc.ListBookings(ctx, f.u1, repository.BookingFilter{RoomID: r2.ID})
	require.NoError(t, err)
	assert.Empty(t, byRoom)

	byRoom, err = svc.ListBookings(ctx, f.admin, repository.BookingFilter{RoomID: r2.ID})
	require.NoError(t, err)
	assert.Len(t, byRoom, 1)
}

func TestCreateBooking_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	svc := newBookingService(f)
	ctx := context.Background()

	const attempts = 40
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := f.u1
			if i%2 == 1 {
				caller = f.u2
			}
			_, err := svc.CreateBooking(ctx, caller, book("2024-01-01", "2024-01-02").on(f.room.ID))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, service.ErrRoomUnavailable)
	}
	assert.Equal(t, 1, wins)
}

type fakeLocker struct {
	mu     sync.Mutex
	held   map[uint]string
	locks  int
	unlock int
}

func (l *fakeLocker) LockRoom(_ context.Context, roomID uint, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[uint]string{}
	}
	if _, ok := l.held[roomID]; ok {
		return "", cache.ErrRoomLocked
	}
	l.locks++
	l.held[roomID] = "token"
	return "token", nil
}

func (l *fakeLocker) UnlockRoom(_ context.Context, roomID uint, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[roomID] == token {
		delete(l.held, roomID)
		l.unlock++
	}
	return nil
}

func TestCreateBooking_RoomLock(t *testing.T) {
	f := newFixture(t)
	locker := &fakeLocker{}
	svc := NewBookingService(f.store, locker, time.Second, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, f.u1, book("2024-01-01", "2024-01-02").on(f.room.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlock)

	r2 := f.addRoom(t, "R2", "50.00")
	locker.held = map[uint]string{r2.ID: "someone-else"}
	_, err = svc.CreateBooking(ctx, f.u2, book("2024-01-01", "2024-01-02").on(r2.ID))
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)
	assert.True(t, f.roomAvailable(t, r2.ID))
}

func TestCreateBooking_WaitsForReleasedLock(t *testing.T) {
	f := newFixture(t)
	locker := &fakeLocker{held: map[uint]string{f.room.ID: "other-request"}}
	svc := NewBookingService(f.store, locker, time.Second, zap.NewNop())

	// The other request gives up without booking shortly after we start.
	time.AfterFunc(60*time.Millisecond, func() {
		_ = locker.UnlockRoom(context.Background(), f.room.ID, "other-request")
	})

	b, err := svc.CreateBooking(context.Background(), f.u1, book("2024-01-01", "2024-01-02").on(f.room.ID))
	require.NoError(t, err)
	assert.Equal(t, f.room.ID, b.RoomID)
	assert.False(t, f.roomAvailable(t, f.room.ID))
}

func TestCreateBooking_LockWaitIsBounded(t *testing.T) {
	f := newFixture(t)
	locker := &fakeLocker{held: map[uint]string{f.room.ID: "other-request"}}
	svc := NewBookingService(f.store, locker, time.Second, zap.NewNop())
	svc.lockWait = 50 * time.Millisecond

	start := time.Now()
	_, err := svc.CreateBooking(context.Background(), f.u1, book("2024-01-01", "2024-01-02").on(f.room.ID))
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, f.roomAvailable(t, f.room.ID))
}
