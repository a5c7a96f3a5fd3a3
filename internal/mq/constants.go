package mq

import "time"

// Exchange, queue and routing key names

// booking lifecycle events are published to a topic exchange, one routing key
// per event type
const (
	BookingEventsExchange = "booking.events"

	BookingCreatedKey       = "booking.created"
	BookingStatusChangedKey = "booking.status_changed"
	BookingCancelledKey     = "booking.cancelled"
	BookingDeletedKey       = "booking.deleted"
)

// the notification queue receives every booking event
const (
	BookingNotificationQueue      = "booking.notification"
	BookingNotificationBindingKey = "booking.#"
)

type BookingEventMessage struct {
	Event        string    `json:"event"`
	BookingID    uint      `json:"booking_id"`
	UserID       uint      `json:"user_id"`
	RoomID       uint      `json:"room_id"`
	Status       string    `json:"status"`
	CheckInDate  string    `json:"check_in_date"`
	CheckOutDate string    `json:"check_out_date"`
	TotalPrice   string    `json:"total_price"`
	ActorID      uint      `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
