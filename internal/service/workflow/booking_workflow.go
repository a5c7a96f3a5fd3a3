package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/mq"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

// EventPublisher is satisfied by *mq.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// BookingWorkflow runs booking mutations and announces each committed change
// on the booking events exchange.
type BookingWorkflow struct {
	BookingService domain.BookingService
	Publisher      EventPublisher
	Logger         *zap.Logger
}

// NewBookingWorkflow accepts a nil publisher; events are then skipped.
func NewBookingWorkflow(bookingService domain.BookingService, publisher EventPublisher, logger *zap.Logger) *BookingWorkflow {
	return &BookingWorkflow{
		BookingService: bookingService,
		Publisher:      publisher,
		Logger:         logger,
	}
}

func (w *BookingWorkflow) Create(ctx context.Context, caller auth.Caller, in domain.CreateBookingInput) (*model.Booking, error) {
	booking, err := w.BookingService.CreateBooking(ctx, caller, in)
	if err != nil {
		return nil, err
	}
	w.announce(ctx, mq.BookingCreatedKey, caller, booking)
	return booking, nil
}

func (w *BookingWorkflow) UpdateStatus(ctx context.Context, caller auth.Caller, id uint, status model.BookingStatus) (*model.Booking, error) {
	booking, err := w.BookingService.UpdateBookingStatus(ctx, caller, id, status)
	if err != nil {
		return nil, err
	}
	key := mq.BookingStatusChangedKey
	if status == model.BookingCancelled {
		key = mq.BookingCancelledKey
	}
	w.announce(ctx, key, caller, booking)
	return booking, nil
}

func (w *BookingWorkflow) Cancel(ctx context.Context, caller auth.Caller, id uint) (*model.Booking, error) {
	booking, err := w.BookingService.CancelBooking(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	w.announce(ctx, mq.BookingCancelledKey, caller, booking)
	return booking, nil
}

func (w *BookingWorkflow) Delete(ctx context.Context, caller auth.Caller, id uint) error {
	booking, err := w.BookingService.DeleteBooking(ctx, caller, id)
	if err != nil {
		return err
	}
	w.announce(ctx, mq.BookingDeletedKey, caller, booking)
	return nil
}

func NewBookingEvent(event string, caller auth.Caller, b *model.Booking) mq.BookingEventMessage {
	return mq.BookingEventMessage{
		Event:        event,
		BookingID:    b.ID,
		UserID:       b.UserID,
		RoomID:       b.RoomID,
		Status:       string(b.Status),
		CheckInDate:  time.Time(b.CheckInDate).Format(time.DateOnly),
		CheckOutDate: time.Time(b.CheckOutDate).Format(time.DateOnly),
		TotalPrice:   b.TotalPrice.StringFixed(2),
		ActorID:      caller.UserID,
		OccurredAt:   time.Now().UTC(),
	}
}

// announce never fails the request: the change is already committed.
func (w *BookingWorkflow) announce(ctx context.Context, key string, caller auth.Caller, b *model.Booking) {
	if w.Publisher == nil {
		return
	}
	if err := w.Publisher.Publish(context.WithoutCancel(ctx), key, NewBookingEvent(key, caller, b)); err != nil {
		w.Logger.Error("failed to publish booking event",
			zap.String("event", key),
			zap.Uint("booking_id", b.ID),
			zap.Error(err))
	}
}
