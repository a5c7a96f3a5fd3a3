package repository

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/internal/model"
)

type memoryTables struct {
	users       map[uint]model.User
	hotels      map[uint]model.Hotel
	rooms       map[uint]model.Room
	bookings    map[uint]model.Booking
	managements map[uint]model.Management
	nextID      map[string]uint
}

func newMemoryTables() memoryTables {
	return memoryTables{
		users:       map[uint]model.User{},
		hotels:      map[uint]model.Hotel{},
		rooms:       map[uint]model.Room{},
		bookings:    map[uint]model.Booking{},
		managements: map[uint]model.Management{},
		nextID:      map[string]uint{},
	}
}

func (t memoryTables) clone() memoryTables {
	return memoryTables{
		users:       maps.Clone(t.users),
		hotels:      maps.Clone(t.hotels),
		rooms:       maps.Clone(t.rooms),
		bookings:    maps.Clone(t.bookings),
		managements: maps.Clone(t.managements),
		nextID:      maps.Clone(t.nextID),
	}
}

func (t memoryTables) id(table string) uint {
	t.nextID[table]++
	return t.nextID[table]
}

type memoryState struct {
	mu     sync.RWMutex // guards tables
	txMu   sync.Mutex   // serializes writers and transactions
	tables memoryTables
}

// MemoryStore keeps every table in process memory. Writes and transactions
// are serialized; a failed transaction restores the snapshot taken when it
// began. Reads outside a transaction may observe an in-flight transaction's
// writes.
type MemoryStore struct {
	state *memoryState
	inTx  bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{tables: newMemoryTables()}}
}

func (s *MemoryStore) Users() UserRepo             { return memUserRepo{s} }
func (s *MemoryStore) Hotels() HotelRepo           { return memHotelRepo{s} }
func (s *MemoryStore) Rooms() RoomRepo             { return memRoomRepo{s} }
func (s *MemoryStore) Bookings() BookingRepo       { return memBookingRepo{s} }
func (s *MemoryStore) Managements() ManagementRepo { return memManagementRepo{s} }

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	s.state.txMu.Lock()
	defer s.state.txMu.Unlock()

	s.state.mu.RLock()
	snapshot := s.state.tables.clone()
	s.state.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()
	return fn(&MemoryStore{state: s.state, inTx: true})
}

func (s *MemoryStore) restore(snapshot memoryTables) {
	s.state.mu.Lock()
	s.state.tables = snapshot
	s.state.mu.Unlock()
}

func (s *MemoryStore) read(ctx context.Context, fn func(t memoryTables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return fn(s.state.tables)
}

func (s *MemoryStore) write(ctx context.Context, fn func(t memoryTables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.state.txMu.Lock()
		defer s.state.txMu.Unlock()
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return fn(s.state.tables)
}

func sortedValues[T any](m map[uint]T, keep func(T) bool) []T {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v := m[id]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

/*
* users
 */

type memUserRepo struct{ s *MemoryStore }

func (r memUserRepo) unique(t memoryTables, u *model.User) error {
	for _, other := range t.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	return nil
}

func (r memUserRepo) Create(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(t memoryTables) error {
		user.ID = 0
		if err := r.unique(t, user); err != nil {
			return err
		}
		user.ID = t.id("users")
		if user.Role == "" {
			user.Role = model.RoleUser
		}
		stamp(&user.CreatedAt, &user.UpdatedAt)
		t.users[user.ID] = *user
		return nil
	})
}

func (r memUserRepo) Save(ctx context.Context, user *model.User) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.users[user.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		if err := r.unique(t, user); err != nil {
			return err
		}
		stamp(&user.CreatedAt, &user.UpdatedAt)
		t.users[user.ID] = *user
		return nil
	})
}

func (r memUserRepo) find(ctx context.Context, match func(model.User) bool) (*model.User, error) {
	var found *model.User
	err := r.s.read(ctx, func(t memoryTables) error {
		for _, u := range sortedValues(t.users, match) {
			found = &u
			return nil
		}
		return gorm.ErrRecordNotFound
	})
	return found, err
}

func (r memUserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.ID == id })
}

func (r memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.Username == username })
}

func (r memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.Email == email })
}

func (r memUserRepo) exists(ctx context.Context, match func(model.User) bool) (bool, error) {
	_, err := r.find(ctx, match)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, func(u model.User) bool { return u.Username == username })
}

func (r memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, func(u model.User) bool { return u.Email == email })
}

func (r memUserRepo) List(ctx context.Context, filter UserFilter) ([]model.User, error) {
	var users []model.User
	err := r.s.read(ctx, func(t memoryTables) error {
		users = sortedValues(t.users, func(u model.User) bool {
			if filter.FirstName != "" && u.FirstName != filter.FirstName {
				return false
			}
			if filter.LastName != "" && u.LastName != filter.LastName {
				return false
			}
			return len(filter.Roles) == 0 || slices.Contains(filter.Roles, u.Role)
		})
		return nil
	})
	return users, err
}

func (r memUserRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.users[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(t.users, id)
		return nil
	})
}

/*
* hotels
 */

type memHotelRepo struct{ s *MemoryStore }

func (r memHotelRepo) Create(ctx context.Context, hotel *model.Hotel) error {
	return r.s.write(ctx, func(t memoryTables) error {
		hotel.ID = t.id("hotels")
		stamp(&hotel.CreatedAt, &hotel.UpdatedAt)
		t.hotels[hotel.ID] = *hotel
		return nil
	})
}

func (r memHotelRepo) Save(ctx context.Context, hotel *model.Hotel) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.hotels[hotel.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		stamp(&hotel.CreatedAt, &hotel.UpdatedAt)
		t.hotels[hotel.ID] = *hotel
		return nil
	})
}

func (r memHotelRepo) GetByID(ctx context.Context, id uint) (*model.Hotel, error) {
	var hotel model.Hotel
	err := r.s.read(ctx, func(t memoryTables) error {
		h, ok := t.hotels[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		hotel = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (r memHotelRepo) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var ok bool
	err := r.s.read(ctx, func(t memoryTables) error {
		_, ok = t.hotels[id]
		return nil
	})
	return ok, err
}

func (r memHotelRepo) ListAll(ctx context.Context) ([]model.Hotel, error) {
	var hotels []model.Hotel
	err := r.s.read(ctx, func(t memoryTables) error {
		hotels = sortedValues(t.hotels, func(model.Hotel) bool { return true })
		return nil
	})
	return hotels, err
}

func (r memHotelRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.hotels[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(t.hotels, id)
		return nil
	})
}

/*
* rooms
 */

type memRoomRepo struct{ s *MemoryStore }

func (f RoomFilter) match(room model.Room) bool {
	if f.HotelID != 0 && room.HotelID != f.HotelID {
		return false
	}
	if f.IsAvailable != nil && room.IsAvailable != *f.IsAvailable {
		return false
	}
	return f.RoomType == "" || room.RoomType == f.RoomType
}

func (r memRoomRepo) unique(t memoryTables, room *model.Room) error {
	for _, other := range t.rooms {
		if other.ID != room.ID && other.RoomNumber == room.RoomNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	return nil
}

func (r memRoomRepo) Create(ctx context.Context, room *model.Room) error {
	return r.s.write(ctx, func(t memoryTables) error {
		room.ID = 0
		if err := r.unique(t, room); err != nil {
			return err
		}
		room.ID = t.id("rooms")
		stamp(&room.CreatedAt, &room.UpdatedAt)
		t.rooms[room.ID] = *room
		return nil
	})
}

func (r memRoomRepo) UpdateDetails(ctx context.Context, room *model.Room) error {
	return r.s.write(ctx, func(t memoryTables) error {
		current, ok := t.rooms[room.ID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		if err := r.unique(t, room); err != nil {
			return err
		}
		current.RoomNumber = room.RoomNumber
		current.RoomType = room.RoomType
		current.Capacity = room.Capacity
		current.PricePerNight = room.PricePerNight
		current.HotelID = room.HotelID
		stamp(&current.CreatedAt, &current.UpdatedAt)
		t.rooms[room.ID] = current
		return nil
	})
}

func (r memRoomRepo) GetByID(ctx context.Context, id uint) (*model.Room, error) {
	var room model.Room
	err := r.s.read(ctx, func(t memoryTables) error {
		found, ok := t.rooms[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		room = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r memRoomRepo) ExistsByRoomNumber(ctx context.Context, roomNumber string) (bool, error) {
	var found bool
	err := r.s.read(ctx, func(t memoryTables) error {
		for _, room := range t.rooms {
			if room.RoomNumber == roomNumber {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r memRoomRepo) List(ctx context.Context, filter RoomFilter) ([]model.Room, error) {
	var rooms []model.Room
	err := r.s.read(ctx, func(t memoryTables) error {
		rooms = sortedValues(t.rooms, filter.match)
		return nil
	})
	return rooms, err
}

func (r memRoomRepo) Count(ctx context.Context, filter RoomFilter) (int64, error) {
	rooms, err := r.List(ctx, filter)
	return int64(len(rooms)), err
}

func (r memRoomRepo) Hold(ctx context.Context, id uint) (bool, error) {
	var held bool
	err := r.s.write(ctx, func(t memoryTables) error {
		room, ok := t.rooms[id]
		if !ok || !room.IsAvailable {
			return nil
		}
		room.IsAvailable = false
		t.rooms[id] = room
		held = true
		return nil
	})
	return held, err
}

func (r memRoomRepo) Release(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if room, ok := t.rooms[id]; ok {
			room.IsAvailable = true
			t.rooms[id] = room
		}
		return nil
	})
}

func (r memRoomRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.rooms[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(t.rooms, id)
		return nil
	})
}

/*
* bookings
 */

type memBookingRepo struct{ s *MemoryStore }

func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	return to.IsZero() || !d.After(to)
}

func (f BookingFilter) match(b model.Booking) bool {
	if f.UserID != 0 && b.UserID != f.UserID {
		return false
	}
	if f.RoomID != 0 && b.RoomID != f.RoomID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return inRange(time.Time(b.CheckInDate), f.CheckInFrom, f.CheckInTo) &&
		inRange(time.Time(b.CheckOutDate), f.CheckOutFrom, f.CheckOutTo)
}

func (r memBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return r.s.write(ctx, func(t memoryTables) error {
		booking.ID = t.id("bookings")
		if booking.Status == "" {
			booking.Status = model.BookingPending
		}
		stamp(&booking.CreatedAt, &booking.UpdatedAt)
		t.bookings[booking.ID] = *booking
		return nil
	})
}

func (r memBookingRepo) GetByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	err := r.s.read(ctx, func(t memoryTables) error {
		found, ok := t.bookings[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		booking = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r memBookingRepo) List(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.s.read(ctx, func(t memoryTables) error {
		bookings = sortedValues(t.bookings, filter.match)
		return nil
	})
	return bookings, err
}

func (r memBookingRepo) Count(ctx context.Context, filter BookingFilter) (int64, error) {
	bookings, err := r.List(ctx, filter)
	return int64(len(bookings)), err
}

func (r memBookingRepo) UpdateStatus(ctx context.Context, id uint, status model.BookingStatus) error {
	return r.s.write(ctx, func(t memoryTables) error {
		booking, ok := t.bookings[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		booking.Status = status
		booking.UpdatedAt = time.Now()
		t.bookings[id] = booking
		return nil
	})
}

func (r memBookingRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.bookings[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(t.bookings, id)
		return nil
	})
}

/*
* managements
 */

type memManagementRepo struct{ s *MemoryStore }

func (f ManagementFilter) match(m model.Management) bool {
	if f.HotelID != 0 && m.HotelID != f.HotelID {
		return false
	}
	return f.UserID == 0 || m.UserID == f.UserID
}

func (r memManagementRepo) Create(ctx context.Context, m *model.Management) error {
	return r.s.write(ctx, func(t memoryTables) error {
		m.ID = t.id("managements")
		stamp(&m.CreatedAt, &m.UpdatedAt)
		t.managements[m.ID] = *m
		return nil
	})
}

func (r memManagementRepo) Save(ctx context.Context, m *model.Management) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.managements[m.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		stamp(&m.CreatedAt, &m.UpdatedAt)
		t.managements[m.ID] = *m
		return nil
	})
}

func (r memManagementRepo) GetByID(ctx context.Context, id uint) (*model.Management, error) {
	var m model.Management
	err := r.s.read(ctx, func(t memoryTables) error {
		found, ok := t.managements[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		m = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r memManagementRepo) List(ctx context.Context, filter ManagementFilter) ([]model.Management, error) {
	var ms []model.Management
	err := r.s.read(ctx, func(t memoryTables) error {
		ms = sortedValues(t.managements, filter.match)
		return nil
	})
	return ms, err
}

func (r memManagementRepo) Count(ctx context.Context, filter ManagementFilter) (int64, error) {
	ms, err := r.List(ctx, filter)
	return int64(len(ms)), err
}

func (r memManagementRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(t memoryTables) error {
		if _, ok := t.managements[id]; !ok {
			return gorm.ErrRecordNotFound
		}
		delete(t.managements, id)
		return nil
	})
}
