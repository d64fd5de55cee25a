package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/image"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/repository"
)

const (
	milesPerKm = 0.621371
	kmPerMile  = 1.60934
)

// TourHandler carries the non-CRUD tour endpoints: aggregations, geo
// queries and image uploads. Plain CRUD comes from the factory.
type TourHandler struct {
	Tours   *repository.TourRepo
	Reviews *repository.ReviewRepo
	Images  *image.Processor
}

func NewTourHandler(tours *repository.TourRepo, reviews *repository.ReviewRepo, images *image.Processor) *TourHandler {
	return &TourHandler{Tours: tours, Reviews: reviews, Images: images}
}

// AliasTopTours rewrites the query string so the /top-5-cheap route is an
// ordinary GetAll with a preset filter.
func AliasTopTours(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := url.Values{}
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		c.Request().URL.RawQuery = q.Encode()
		return next(c)
	}
}

// ExpandReviews attaches the tour's reviews when fetching a single tour.
func (h *TourHandler) ExpandReviews(ctx context.Context, t *model.Tour) error {
	reviews, err := h.Reviews.FindAll(ctx, repository.Scope{"tour_id": t.ID}, repository.Query{})
	if err != nil {
		return err
	}
	t.Reviews = reviews
	return nil
}

// Stats returns per-difficulty aggregates over well-rated tours.
func (h *TourHandler) Stats(c echo.Context) error {
	ctx, cancel := timeoutCtx(c)
	defer cancel()
	stats, err := h.Tours.Stats(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	return respond(c, http.StatusOK, echo.Map{"stats": stats})
}

// MonthlyPlan breaks a year's tour starts down by month, busiest first.
func (h *TourHandler) MonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return apperr.BadRequest("Invalid year: " + c.Param("year"))
	}
	ctx, cancel := timeoutCtx(c)
	defer cancel()
	plan, err := h.Tours.MonthlyPlan(ctx, year)
	if err != nil {
		return apperr.Internal(err)
	}
	return respondList(c, plan)
}

// parseLatLng splits the "lat,lng" path segment used by the geo routes.
func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, apperr.BadRequest("Please provide latitude and longitude in the format lat,lng")
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, apperr.BadRequest("Please provide latitude and longitude in the format lat,lng")
	}
	return lat, lng, nil
}

// ToursWithin lists tours whose start location falls inside the given
// radius around a point. Unit is "mi" or "km".
func (h *TourHandler) ToursWithin(c echo.Context) error {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	dist, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || dist < 0 {
		return apperr.BadRequest("Invalid distance: " + c.Param("distance"))
	}
	radiusKm := dist
	if c.Param("unit") == "mi" {
		radiusKm = dist * kmPerMile
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	tours, err := h.Tours.Within(ctx, lat, lng, radiusKm)
	if err != nil {
		return apperr.Internal(err)
	}
	return respondList(c, tours)
}

// Distances returns every tour with its distance from the given point,
// nearest first.
func (h *TourHandler) Distances(c echo.Context) error {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	multiplier := 1.0
	if c.Param("unit") == "mi" {
		multiplier = milesPerKm
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	tours, err := h.Tours.Distances(ctx, lat, lng, multiplier)
	if err != nil {
		return apperr.Internal(err)
	}
	return respondList(c, tours)
}

// UpdateTour is the tour patch endpoint. JSON bodies go through the same
// partial-update path the factory uses; multipart bodies additionally run
// the cover and gallery uploads through the image processor, with the
// resulting filenames joining the patch.
func (h *TourHandler) UpdateTour(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var patch map[string]any
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		patch, err = h.multipartPatch(c)
	} else {
		patch, err = bindPatch(c)
	}
	if err != nil {
		return err
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	rec, err := h.Tours.Update(ctx, id, patch)
	if err != nil {
		return translateStoreErr(err, "tour")
	}
	return respond(c, http.StatusOK, rec)
}

// multipartPatch builds a patch from a multipart form: text fields first,
// then the processed cover and up to three gallery images.
func (h *TourHandler) multipartPatch(c echo.Context) (map[string]any, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.BadRequest("Invalid multipart form")
	}
	patch := map[string]any{}
	for _, field := range []string{"name", "summary", "description", "difficulty"} {
		if vals := form.Value[field]; len(vals) > 0 && vals[0] != "" {
			patch[field] = vals[0]
		}
	}

	id := c.Param("id")
	now := time.Now().Unix()
	if covers := form.File["imageCover"]; len(covers) > 0 {
		name := fmt.Sprintf("tour-%s-%d-cover.jpeg", id, now)
		stored, err := h.Images.Save(covers[0], name, 2000, 1333)
		if err != nil {
			return nil, apperr.BadRequest("Could not process the uploaded image")
		}
		patch["imageCover"] = stored
	}
	var names []string
	for i, fh := range form.File["images"] {
		if i == 3 {
			break
		}
		name := fmt.Sprintf("tour-%s-%d-%d.jpeg", id, now, i+1)
		stored, err := h.Images.Save(fh, name, 2000, 1333)
		if err != nil {
			return nil, apperr.BadRequest("Could not process the uploaded image")
		}
		names = append(names, stored)
	}
	if len(names) > 0 {
		patch["images"] = names
	}
	return patch, nil
}
