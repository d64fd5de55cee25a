package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/repository"
)

// Reviews are plain factory CRUD; what lives here are the hooks and scope
// that make the nested /tours/:tourId/reviews routes work.

// SetReviewTour fills the review's tour from the nested route when the
// body did not name one.
func SetReviewTour(c echo.Context, rv *model.Review) error {
	if rv.TourID != 0 {
		return nil
	}
	raw := c.Param("tourId")
	if raw == "" {
		return apperr.BadRequest("A review must belong to a tour")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return apperr.BadRequest("Invalid ID: " + raw)
	}
	rv.TourID = id
	return nil
}

// SetReviewUser stamps the authenticated user as the author, overriding
// anything the body claims.
func SetReviewUser(c echo.Context, rv *model.Review) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	rv.UserID = u.ID
	return nil
}

// ReviewScope narrows listings to the nested route's tour; the flat
// /reviews route lists everything.
func ReviewScope(c echo.Context) repository.Scope {
	raw := c.Param("tourId")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return repository.Scope{"tour_id": id}
}
