package model

import (
	"time"

	"github.com/gotours/tour-booking-api/internal/apperr"
)

// Booking mirrors the 'bookings' table and links a user to a tour at the
// price paid at checkout time.
type Booking struct {
	ID        uint64    `json:"id"`
	TourID    uint64    `json:"tour"`
	UserID    uint64    `json:"user"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the booking references and price.
func (b *Booking) Validate() error {
	if b.TourID == 0 {
		return apperr.BadRequest("Booking must belong to a tour")
	}
	if b.UserID == 0 {
		return apperr.BadRequest("Booking must belong to a user")
	}
	if b.Price <= 0 {
		return apperr.BadRequest("Booking must have a price")
	}
	return nil
}
