// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a checkout completes and a booking
// row is written. It carries enough for downstream consumers to log or
// notify without querying the primary database.
type BookingCreatedEvent struct {
	BookingID  uint64  `json:"booking_id"`
	TourID     uint64  `json:"tour_id"`
	TourName   string  `json:"tour_name"`
	UserID     uint64  `json:"user_id"`
	UserEmail  string  `json:"user_email"`
	Price      float64 `json:"price"`
	Paid       bool    `json:"paid"`
	CreatedAt  string  `json:"created_at"`
	StripeSess string  `json:"stripe_session,omitempty"`
}
