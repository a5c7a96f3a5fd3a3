package workflow

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/mq"
)

// NotificationWorkflow consumes booking events and notifies guests. Delivery
// is currently a structured log line per event.
type NotificationWorkflow struct {
	logger *zap.Logger
}

func NewNotificationWorkflow(logger *zap.Logger) *NotificationWorkflow {
	return &NotificationWorkflow{
		logger: logger,
	}
}

func (w *NotificationWorkflow) Start(mqConn *amqp.Connection) error {
	if err := w.ConsumeBookingEvents(mqConn); err != nil {
		return err
	}
	return nil
}

func (w *NotificationWorkflow) ConsumeBookingEvents(conn *amqp.Connection) error {
	ch, err := mq.NewChannel(conn)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(mq.BookingNotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.handleDelivery(msg)
		}
	}()

	return nil
}

func (w *NotificationWorkflow) handleDelivery(msg amqp.Delivery) {
	if err := w.HandleEvent(msg.Body); err != nil {
		w.logger.Warn("dropping malformed booking event", zap.Error(err))
		msg.Nack(false, false)
		return
	}
	msg.Ack(false)
}

// HandleEvent decodes one booking event and emits the guest notification.
func (w *NotificationWorkflow) HandleEvent(body []byte) error {
	var event mq.BookingEventMessage
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	if event.BookingID == 0 || event.Event == "" {
		return fmt.Errorf("booking event without id or type")
	}

	w.logger.Info(notificationText(event),
		zap.String("event", event.Event),
		zap.Uint("booking_id", event.BookingID),
		zap.Uint("user_id", event.UserID),
		zap.Uint("room_id", event.RoomID),
		zap.String("status", event.Status),
		zap.Time("occurred_at", event.OccurredAt))
	return nil
}

func notificationText(event mq.BookingEventMessage) string {
	switch event.Event {
	case mq.BookingCreatedKey:
		return fmt.Sprintf("booking %d received for %s to %s, total %s", event.BookingID, event.CheckInDate, event.CheckOutDate, event.TotalPrice)
	case mq.BookingCancelledKey:
		return fmt.Sprintf("booking %d cancelled", event.BookingID)
	case mq.BookingDeletedKey:
		return fmt.Sprintf("booking %d removed", event.BookingID)
	default:
		return fmt.Sprintf("booking %d is now %s", event.BookingID, event.Status)
	}
}
