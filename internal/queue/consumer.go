package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gotours/tour-booking-api/internal/logger"
)

// BookingQueueName is the durable queue both the publisher and consumer
// declare, so either side may start first.
const BookingQueueName = "booking.created"

// StartBookingConsumer connects to the broker, declares the booking.created
// queue and consumes it, writing one structured log line per booking. It
// runs a reconnect loop with exponential backoff and never returns under
// normal operation; processing errors are logged and the offending message
// rejected without requeue so a bad payload cannot loop forever.
func StartBookingConsumer(url string, log *logger.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("broker dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, log); err != nil {
			log.Warn().Err(err).Msg("consume loop ended, reconnecting")
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, log *logger.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}

	if _, err := ch.QueueDeclare(BookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(BookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, log); err != nil {
			log.Error().Err(err).Msg("handle booking event failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, log *logger.Logger) error {
	var ev BookingCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	log.Info().
		Uint64("booking_id", ev.BookingID).
		Uint64("tour_id", ev.TourID).
		Str("tour", ev.TourName).
		Uint64("user_id", ev.UserID).
		Str("email", ev.UserEmail).
		Float64("price", ev.Price).
		Bool("paid", ev.Paid).
		Str("created_at", ev.CreatedAt).
		Msg("booking created")
	return nil
}
