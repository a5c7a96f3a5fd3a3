package model

import "strings"

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

var bookingStatuses = []BookingStatus{
	BookingPending, BookingConfirmed, BookingCheckedIn, BookingCheckedOut, BookingCancelled,
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s BookingStatus) Valid() bool {
	for _, known := range bookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether a booking in this status holds its room.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled
}
