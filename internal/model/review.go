package model

import (
	"strings"
	"time"

	"github.com/gotours/tour-booking-api/internal/apperr"
)

// Review mirrors the 'reviews' table.  Each review references its tour and
// author; creation middleware fills both before the generic create handler
// runs.
type Review struct {
	ID        uint64    `json:"id"`
	Review    string    `json:"review"`
	Rating    float64   `json:"rating"`
	TourID    uint64    `json:"tour"`
	UserID    uint64    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the review text, rating and references.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.Review) == "" {
		return apperr.BadRequest("Review can not be empty")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return apperr.BadRequest("Rating must be between 1.0 and 5.0")
	}
	if r.TourID == 0 {
		return apperr.BadRequest("Review must belong to a tour")
	}
	if r.UserID == 0 {
		return apperr.BadRequest("Review must belong to a user")
	}
	return nil
}
