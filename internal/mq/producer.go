package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func SendMessage(ctx context.Context, ch *amqp.Channel, exchange, routingKey string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message to %s/%s: %w", exchange, routingKey, err)
	}

	return nil
}

// Producer publishes to one exchange over a single channel. amqp channels
// must not be shared between concurrent publishers, so Publish serializes.
type Producer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewProducer(conn *amqp.Connection, exchange string) (*Producer, error) {
	ch, err := NewChannel(conn)
	if err != nil {
		return nil, err
	}
	return &Producer{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Producer) Publish(ctx context.Context, routingKey string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch.IsClosed() {
		ch, err := NewChannel(p.conn)
		if err != nil {
			return fmt.Errorf("reopen channel: %w", err)
		}
		p.ch = ch
	}
	return SendMessage(ctx, p.ch, p.exchange, routingKey, message)
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
