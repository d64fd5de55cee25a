package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTour() Tour {
	return Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
	}
}

func TestTourValidate(t *testing.T) {
	t.Run("valid tour gets the default rating", func(t *testing.T) {
		tour := validTour()
		require.NoError(t, tour.Validate())
		assert.Equal(t, 4.5, tour.RatingsAverage)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Tour)
			msg    string
		}{
			{"blank name", func(tr *Tour) { tr.Name = "  " }, "A tour must have a name"},
			{"zero duration", func(tr *Tour) { tr.Duration = 0 }, "A tour must have a duration"},
			{"zero group size", func(tr *Tour) { tr.MaxGroupSize = 0 }, "A tour must have a group size"},
			{"bad difficulty", func(tr *Tour) { tr.Difficulty = "extreme" }, "Difficulty is either: easy, medium, difficult"},
			{"zero price", func(tr *Tour) { tr.Price = 0 }, "A tour must have a price"},
			{"discount above price", func(tr *Tour) { tr.PriceDiscount = 500 }, "Discount price should be below regular price"},
			{"blank summary", func(tr *Tour) { tr.Summary = "" }, "A tour must have a summary"},
			{"rating out of range", func(tr *Tour) { tr.RatingsAverage = 5.5 }, "Rating must be between 1.0 and 5.0"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tour := validTour()
				tt.mutate(&tour)
				err := tour.Validate()
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.msg)
			})
		}
	})

	t.Run("discount below price is fine", func(t *testing.T) {
		tour := validTour()
		tour.PriceDiscount = 100
		assert.NoError(t, tour.Validate())
	})
}
