// Package service holds cross-cutting application services that sit between
// handlers and external systems.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gotours/tour-booking-api/internal/logger"
	"github.com/gotours/tour-booking-api/internal/queue"
)

// Publisher delivers domain events to the message broker. An empty URL
// disables publishing, so a missing broker never blocks bookings.
type Publisher struct {
	URL string
	Log *logger.Logger
}

func NewPublisher(url string, log *logger.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// BookingCreated publishes the event to the booking.created queue. A fresh
// connection per publish keeps the publisher stateless; bookings are rare
// enough that connection reuse is not worth a reconnect-aware channel pool.
// Errors are logged and returned so callers can ignore them without losing
// the trace.
func (p *Publisher) BookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	if p.URL == "" {
		return nil
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Error().Err(err).Msg("broker dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Error().Err(err).Msg("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.BookingQueueName, true, false, false, false, nil); err != nil {
		p.Log.Error().Err(err).Msg("queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.Log.Error().Err(err).Msg("marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.BookingQueueName, false, false, pub); err != nil {
		p.Log.Error().Err(err).Msg("publish failed")
		return err
	}
	return nil
}
