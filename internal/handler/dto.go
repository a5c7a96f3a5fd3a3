package handler

import (
	"time"

	"github.com/qs-lzh/hotel-management/internal/model"
)

type RoomResponse struct {
	ID            uint      `json:"id"`
	RoomNumber    string    `json:"roomNumber"`
	RoomType      string    `json:"roomType"`
	Capacity      int       `json:"capacity"`
	PricePerNight string    `json:"pricePerNight"`
	IsAvailable   bool      `json:"isAvailable"`
	HotelID       uint      `json:"hotelId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newRoomResponse(r *model.Room) RoomResponse {
	return RoomResponse{
		ID:            r.ID,
		RoomNumber:    r.RoomNumber,
		RoomType:      r.RoomType,
		Capacity:      r.Capacity,
		PricePerNight: r.PricePerNight.StringFixed(2),
		IsAvailable:   r.IsAvailable,
		HotelID:       r.HotelID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type BookingResponse struct {
	ID           uint      `json:"id"`
	CheckInDate  string    `json:"checkInDate"`
	CheckOutDate string    `json:"checkOutDate"`
	TotalPrice   string    `json:"totalPrice"`
	Status       string    `json:"status"`
	UserID       uint      `json:"userId"`
	RoomID       uint      `json:"roomId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newBookingResponse(b *model.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		CheckInDate:  time.Time(b.CheckInDate).Format(time.DateOnly),
		CheckOutDate: time.Time(b.CheckOutDate).Format(time.DateOnly),
		TotalPrice:   b.TotalPrice.StringFixed(2),
		Status:       string(b.Status),
		UserID:       b.UserID,
		RoomID:       b.RoomID,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

type SessionResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func mapSlice[T, R any](in []T, fn func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}

// orEmpty keeps list responses as [] rather than null.
func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
