package model

import (
	"strings"
	"time"

	"github.com/gotours/tour-booking-api/internal/apperr"
)

// Tour difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Tour mirrors the 'tours' table.  Images are stored comma-separated in a
// single column and split by the repository.  The start location is a flat
// lat/lng pair used by the geo queries.
type Tour struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Duration        int       `json:"duration"`
	MaxGroupSize    int       `json:"maxGroupSize"`
	Difficulty      string    `json:"difficulty"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	Price           float64   `json:"price"`
	PriceDiscount   float64   `json:"priceDiscount,omitempty"`
	Summary         string    `json:"summary"`
	Description     string    `json:"description,omitempty"`
	ImageCover      string    `json:"imageCover"`
	Images          []string  `json:"images"`
	StartLat        float64   `json:"startLat"`
	StartLng        float64   `json:"startLng"`
	StartAddress    string    `json:"startAddress,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"-"`

	// Reviews is populated only when a single tour is fetched with its
	// reviews expanded; it has no column of its own.
	Reviews []Review `json:"reviews,omitempty"`

	// Distance is populated only by the /distances query.
	Distance float64 `json:"distance,omitempty"`
}

// Validate checks the fields required to sell a tour.  Called by the create
// handler before persistence.
func (t *Tour) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.BadRequest("A tour must have a name")
	}
	if t.Duration <= 0 {
		return apperr.BadRequest("A tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		return apperr.BadRequest("A tour must have a group size")
	}
	switch t.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
	default:
		return apperr.BadRequest("Difficulty is either: easy, medium, difficult")
	}
	if t.Price <= 0 {
		return apperr.BadRequest("A tour must have a price")
	}
	if t.PriceDiscount < 0 || (t.PriceDiscount > 0 && t.PriceDiscount >= t.Price) {
		return apperr.BadRequest("Discount price should be below regular price")
	}
	if strings.TrimSpace(t.Summary) == "" {
		return apperr.BadRequest("A tour must have a summary")
	}
	if t.RatingsAverage == 0 {
		t.RatingsAverage = 4.5
	}
	if t.RatingsAverage < 1 || t.RatingsAverage > 5 {
		return apperr.BadRequest("Rating must be between 1.0 and 5.0")
	}
	return nil
}
