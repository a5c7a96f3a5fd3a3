package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns wraps exactly one of these.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrHotelNotFound      = fmt.Errorf("hotel %w", ErrNotFound)
	ErrRoomNotFound       = fmt.Errorf("room %w", ErrNotFound)
	ErrBookingNotFound    = fmt.Errorf("booking %w", ErrNotFound)
	ErrManagementNotFound = fmt.Errorf("management %w", ErrNotFound)

	ErrUsernameTaken    = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrEmailTaken       = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrRoomNumberTaken  = fmt.Errorf("room number already exists: %w", ErrConflict)
	ErrRoomUnavailable  = fmt.Errorf("room is not available: %w", ErrConflict)
	ErrAlreadyCancelled = fmt.Errorf("booking is already cancelled: %w", ErrConflict)
	ErrHasDependents    = fmt.Errorf("record is still referenced: %w", ErrConflict)

	ErrInvalidDateRange = fmt.Errorf("check-in date must be before check-out date: %w", ErrInvalidInput)
	ErrBadCredentials   = fmt.Errorf("invalid username or password: %w", ErrUnauthenticated)
)

// Invalid builds an ErrInvalidInput with a field-level message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Internal wraps an unexpected store failure.
func Internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

// Kind returns the kind sentinel err wraps, or ErrInternal.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrConflict, ErrInvalidInput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
