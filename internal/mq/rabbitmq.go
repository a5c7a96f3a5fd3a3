package mq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

func InitQueues(mqConn *amqp.Connection) error {
	ch, err := NewChannel(mqConn)
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := SetupTopicExchange(ch, BookingEventsExchange); err != nil {
		return err
	}
	return SetupBoundQueue(ch, BookingNotificationQueue, BookingEventsExchange, BookingNotificationBindingKey)
}

func NewMQConn(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func NewChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func SetupTopicExchange(ch *amqp.Channel, exchangeName string) error {
	return ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil)
}

// SetupBoundQueue declares a durable queue and binds it to exchange under
// bindingKey.
func SetupBoundQueue(ch *amqp.Channel, queueName, exchangeName, bindingKey string) error {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(queueName, bindingKey, exchangeName, false, nil)
}
