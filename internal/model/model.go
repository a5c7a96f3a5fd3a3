package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	HashedPassword string    `gorm:"not null" json:"-"`
	FirstName      string    `gorm:"size:50" json:"firstName"`
	LastName       string    `gorm:"size:50" json:"lastName"`
	Email          string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone          string    `gorm:"size:20" json:"phone"`
	Address        string    `gorm:"type:text" json:"address"`
	Role           Role      `gorm:"type:varchar(20);not null;default:USER" json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Hotel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Address   string    `gorm:"type:text" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Room.IsAvailable is owned by the booking engine: it is false exactly while a
// non-cancelled booking holds the room.
type Room struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RoomNumber    string          `gorm:"size:20;not null;uniqueIndex" json:"roomNumber"`
	RoomType      string          `gorm:"size:50;not null;index" json:"roomType"`
	Capacity      int             `gorm:"not null" json:"capacity"`
	PricePerNight decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"pricePerNight"`
	IsAvailable   bool            `gorm:"not null;default:true" json:"isAvailable"`
	HotelID       uint            `gorm:"not null;index" json:"hotelId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Booking struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CheckInDate  datatypes.Date  `gorm:"not null;index" json:"checkInDate"`
	CheckOutDate datatypes.Date  `gorm:"not null;index" json:"checkOutDate"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"totalPrice"`
	Status       BookingStatus   `gorm:"type:varchar(20);not null;default:PENDING;index" json:"status"`
	UserID       uint            `gorm:"not null;index" json:"userId"`
	RoomID       uint            `gorm:"not null;index" json:"roomId"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Management struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HotelID   uint      `gorm:"not null;index" json:"hotelId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{&User{}, &Hotel{}, &Room{}, &Booking{}, &Management{}}
}
