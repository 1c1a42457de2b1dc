// Package service holds the booking submission flow and the broker
// publisher it reports created bookings through.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/sportfield-booking/internal/queue"
)

// EventPublisher reports created bookings to downstream consumers.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, event q.BookingCreatedEvent) error
}

// AMQPPublisher publishes events to RabbitMQ. Each publish dials its own
// connection, which keeps the publisher stateless at the cost of a dial per
// booking.
type AMQPPublisher struct {
	url    string
	logger *zap.Logger
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, logger *zap.Logger) *AMQPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{url: url, logger: logger.With(zap.String("component", "rabbitmq"))}
}

// PublishBookingCreated publishes a BookingCreatedEvent to the
// "booking.created" queue. It never panics; any error is logged and returned
// so the caller can choose to ignore it. Messages are marked as persistent.
func (p *AMQPPublisher) PublishBookingCreated(ctx context.Context, event q.BookingCreatedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.BookingCreatedQueue, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		p.logger.Warn("queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		q.BookingCreatedQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		p.logger.Warn("publish failed", zap.Error(err))
		return err
	}
	return nil
}
