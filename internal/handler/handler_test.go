package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/qs-lzh/hotel-management/config"
	"github.com/qs-lzh/hotel-management/internal/app"
	"github.com/qs-lzh/hotel-management/internal/repository"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	app    *app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:           "test",
		DBDriver:      repository.DriverMemory,
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		BcryptCost:    bcrypt.MinCost,
		RoomLockTTL:   time.Second,
		AdminUsername: "admin",
		AdminPassword: "admin-pass",
		AdminEmail:    "admin@hotel.test",
	}
	a := app.New(cfg, zap.NewNop(), nil, repository.NewMemoryStore(), nil, nil)
	require.NoError(t, a.Init(context.Background()))

	return &testServer{t: t, router: NewRouter(a), app: a}
}

func (s *testServer) do(method, path, token string, body any) (int, []byte) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func (s *testServer) decode(raw []byte, v any) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(raw, v), string(raw))
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	code, raw := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, code, string(raw))
	var session SessionResponse
	s.decode(raw, &session)
	return session.Token
}

func (s *testServer) register(username string) (string, uint) {
	s.t.Helper()
	code, raw := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "secret99",
		"email":    username + "@mail.test",
		"role":     "ADMIN",
	})
	require.Equal(s.t, http.StatusCreated, code, string(raw))
	var session SessionResponse
	s.decode(raw, &session)
	return session.Token, session.User.ID
}

// seedRoom creates a hotel and one room priced at 100.00 as the admin.
func (s *testServer) seedRoom(adminToken string) RoomResponse {
	s.t.Helper()
	code, raw := s.do(http.MethodPost, "/api/hotels", adminToken, gin.H{"name": "Seaside"})
	require.Equal(s.t, http.StatusCreated, code, string(raw))
	var hotel struct {
		ID uint `json:"id"`
	}
	s.decode(raw, &hotel)

	code, raw = s.do(http.MethodPost, "/api/rooms", adminToken, gin.H{
		"roomNumber":    "R1",
		"roomType":      "DOUBLE",
		"capacity":      2,
		"pricePerNight": "100.00",
		"hotelId":       hotel.ID,
	})
	require.Equal(s.t, http.StatusCreated, code, string(raw))
	var room RoomResponse
	s.decode(raw, &room)
	return room
}

func errorKindOf(t *testing.T, raw []byte) string {
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	kind, _ := body["error"].(string)
	return kind
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, raw := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestRegister_AlwaysCreatesUser(t *testing.T) {
	s := newTestServer(t)
	code, raw := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "eve", "password": "secret99", "email": "eve@mail.test", "role": "ADMIN",
	})
	require.Equal(t, http.StatusCreated, code, string(raw))
	var session SessionResponse
	s.decode(raw, &session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.EqualValues(t, "USER", session.User.Role)
	assert.NotContains(t, string(raw), "hashedPassword")

	code, raw = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "eve", "password": "secret99", "email": "other@mail.test",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", errorKindOf(t, raw))
}

func TestAuth_Rejections(t *testing.T) {
	s := newTestServer(t)

	code, raw := s.do(http.MethodGet, "/api/hotels", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", errorKindOf(t, raw))

	code, _ = s.do(http.MethodGet, "/api/hotels", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, raw = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(raw), "detail")
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-pass")
	room := s.seedRoom(admin)
	assert.Equal(t, "100.00", room.PricePerNight)
	assert.True(t, room.IsAvailable)

	u1, u1ID := s.register("alice")
	u2, _ := s.register("bob")

	code, raw := s.do(http.MethodPost, "/api/bookings", u1, gin.H{
		"roomId": room.ID, "checkInDate": "2024-01-01", "checkOutDate": "2024-01-03",
	})
	require.Equal(t, http.StatusCreated, code, string(raw))
	var booking BookingResponse
	s.decode(raw, &booking)
	assert.Equal(t, "200.00", booking.TotalPrice)
	assert.Equal(t, "PENDING", booking.Status)
	assert.Equal(t, "2024-01-01", booking.CheckInDate)
	assert.Equal(t, u1ID, booking.UserID)

	code, raw = s.do(http.MethodGet, "/api/rooms?isAvailable=false", u2, nil)
	require.Equal(t, http.StatusOK, code)
	var held []RoomResponse
	s.decode(raw, &held)
	require.Len(t, held, 1)
	assert.Equal(t, room.ID, held[0].ID)

	code, raw = s.do(http.MethodPost, "/api/bookings", u2, gin.H{
		"roomId": room.ID, "checkInDate": "2024-02-01", "checkOutDate": "2024-02-02",
	})
	assert.Equal(t, http.StatusConflict, code, string(raw))

	path := "/api/bookings/" + jsonID(booking.ID)
	code, _ = s.do(http.MethodGet, path, u2, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPut, path+"/cancel", u2, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, raw = s.do(http.MethodGet, "/api/bookings", u2, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	code, raw = s.do(http.MethodPut, path, u1, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, code, string(raw))
	s.decode(raw, &booking)
	assert.Equal(t, "CONFIRMED", booking.Status)

	code, raw = s.do(http.MethodPut, path+"/cancel", u1, nil)
	require.Equal(t, http.StatusOK, code, string(raw))
	s.decode(raw, &booking)
	assert.Equal(t, "CANCELLED", booking.Status)

	code, _ = s.do(http.MethodPut, path+"/cancel", u1, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, raw = s.do(http.MethodGet, "/api/rooms/"+jsonID(room.ID), u2, nil)
	require.Equal(t, http.StatusOK, code)
	var freed RoomResponse
	s.decode(raw, &freed)
	assert.True(t, freed.IsAvailable)

	code, _ = s.do(http.MethodDelete, path, u1, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(http.MethodGet, path, u1, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBookingValidation(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-pass")
	room := s.seedRoom(admin)
	u1, _ := s.register("alice")

	code, raw := s.do(http.MethodPost, "/api/bookings", u1, gin.H{
		"roomId": room.ID, "checkInDate": "01/01/2024", "checkOutDate": "2024-01-03",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", errorKindOf(t, raw))

	code, _ = s.do(http.MethodPost, "/api/bookings", u1, gin.H{
		"roomId": room.ID, "checkInDate": "2024-01-03", "checkOutDate": "2024-01-03",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/bookings", u1, gin.H{
		"roomId": 999, "checkInDate": "2024-01-01", "checkOutDate": "2024-01-03",
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/bookings/abc", u1, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/bookings?status=LOST", u1, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/bookings?checkInFrom=tomorrow", u1, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRoomWrites_RequireStaffOrAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-pass")
	room := s.seedRoom(admin)
	user, _ := s.register("alice")

	body := gin.H{"roomNumber": "R2", "roomType": "SINGLE", "capacity": 1, "pricePerNight": 80, "hotelId": room.HotelID}
	code, raw := s.do(http.MethodPost, "/api/rooms", user, body)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", errorKindOf(t, raw))

	code, _ = s.do(http.MethodPost, "/api/hotels", user, gin.H{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, code)

	body["roomNumber"] = "R1"
	code, _ = s.do(http.MethodPost, "/api/rooms", admin, body)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodDelete, "/api/hotels/"+jsonID(room.HotelID), admin, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestUsers_ScopeAndRoles(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-pass")
	alice, aliceID := s.register("alice")
	_, bobID := s.register("bob")

	code, raw := s.do(http.MethodGet, "/api/users", alice, nil)
	require.Equal(t, http.StatusOK, code)
	var listed []map[string]any
	s.decode(raw, &listed)
	require.Len(t, listed, 1)
	assert.EqualValues(t, aliceID, listed[0]["id"])

	code, _ = s.do(http.MethodGet, "/api/users/"+jsonID(bobID), alice, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, raw = s.do(http.MethodGet, "/api/users/search?roles=user", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	code, raw = s.do(http.MethodGet, "/api/users/search?roles=user", admin, nil)
	require.Equal(t, http.StatusOK, code)
	s.decode(raw, &listed)
	assert.Len(t, listed, 2)

	update := gin.H{"username": "alice", "email": "alice@mail.test", "role": "ADMIN"}
	code, _ = s.do(http.MethodPut, "/api/users/"+jsonID(aliceID), alice, update)
	assert.Equal(t, http.StatusForbidden, code)

	update["role"] = "STAFF"
	code, raw = s.do(http.MethodPut, "/api/users/"+jsonID(aliceID), admin, update)
	require.Equal(t, http.StatusOK, code, string(raw))
	assert.Contains(t, string(raw), `"role":"STAFF"`)

	update["role"] = "OWNER"
	code, _ = s.do(http.MethodPut, "/api/users/"+jsonID(aliceID), admin, update)
	assert.Equal(t, http.StatusBadRequest, code)

	code, raw = s.do(http.MethodPost, "/api/users", admin, gin.H{
		"username": "carol", "password": "secret99", "email": "carol@mail.test", "role": "staff",
	})
	require.Equal(t, http.StatusCreated, code, string(raw))
	assert.Contains(t, string(raw), `"role":"STAFF"`)

	code, _ = s.do(http.MethodDelete, "/api/users/"+jsonID(bobID), admin, nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestManagements(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin-pass")
	room := s.seedRoom(admin)
	staff, staffID := s.register("sam")

	code, raw := s.do(http.MethodPost, "/api/managements", admin, gin.H{"hotelId": room.HotelID, "userId": staffID})
	require.Equal(t, http.StatusCreated, code, string(raw))

	code, raw = s.do(http.MethodGet, "/api/managements?hotelId="+jsonID(room.HotelID), admin, nil)
	require.Equal(t, http.StatusOK, code)
	var links []map[string]any
	s.decode(raw, &links)
	assert.Len(t, links, 1)

	code, raw = s.do(http.MethodGet, "/api/managements", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	code, _ = s.do(http.MethodPost, "/api/managements", admin, gin.H{"hotelId": room.HotelID, "userId": 999})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("alice")
	code, _ := s.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func jsonID(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
