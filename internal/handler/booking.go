package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/config"
	"github.com/gotours/tour-booking-api/internal/logger"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/payment"
	"github.com/gotours/tour-booking-api/internal/queue"
	"github.com/gotours/tour-booking-api/internal/repository"
	"github.com/gotours/tour-booking-api/internal/service"
)

// BookingHandler drives the checkout flow. Admin CRUD on bookings comes
// from the factory; this type owns the Stripe session and its completion.
type BookingHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Tours    *repository.TourRepo
	Payments *payment.Client
	Events   *service.Publisher
	Log      *logger.Logger
}

func NewBookingHandler(cfg config.Config, bookings *repository.BookingRepo, tours *repository.TourRepo, payments *payment.Client, events *service.Publisher, log *logger.Logger) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Bookings: bookings, Tours: tours, Payments: payments, Events: events, Log: log}
}

// GetCheckoutSession opens a Stripe checkout session for the tour in the
// path and hands the session back to the client, which redirects to
// Stripe's hosted page.
func (h *BookingHandler) GetCheckoutSession(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	if !h.Payments.Enabled() {
		return apperr.New(http.StatusServiceUnavailable, "Payments are not configured")
	}
	id, err := strconv.ParseUint(c.Param("tourId"), 10, 64)
	if err != nil {
		return apperr.BadRequest("Invalid ID: " + c.Param("tourId"))
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	tour, err := h.Tours.FindByID(ctx, id)
	if err != nil {
		return translateStoreErr(err, "tour")
	}

	successURL := fmt.Sprintf("%s/api/v1/bookings/checkout-complete?tour=%d&price=%g",
		h.Cfg.PublicURL, tour.ID, tour.Price)
	cancelURL := fmt.Sprintf("%s/tour/%d", h.Cfg.PublicURL, tour.ID)

	sess, err := h.Payments.CreateSession(ctx, tour, u.ID, u.Email, successURL, cancelURL)
	if err != nil {
		h.Log.Error().Err(err).Uint64("tour", tour.ID).Msg("checkout session failed")
		return apperr.New(http.StatusBadGateway, "Could not create a checkout session. Try again later")
	}
	return respond(c, http.StatusOK, echo.Map{"session": sess})
}

// CheckoutComplete is the success redirect target. It writes the paid
// booking for the authenticated user, announces it on the broker and sends
// the customer on to the public site.
func (h *BookingHandler) CheckoutComplete(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	tourID, err := strconv.ParseUint(c.QueryParam("tour"), 10, 64)
	if err != nil {
		return apperr.BadRequest("Invalid ID: " + c.QueryParam("tour"))
	}
	price, err := strconv.ParseFloat(c.QueryParam("price"), 64)
	if err != nil || price <= 0 {
		return apperr.BadRequest("Invalid price")
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	tour, err := h.Tours.FindByID(ctx, tourID)
	if err != nil {
		return translateStoreErr(err, "tour")
	}

	b := model.Booking{TourID: tour.ID, UserID: u.ID, Price: price, Paid: true}
	if err := h.Bookings.Insert(ctx, &b); err != nil {
		return translateStoreErr(err, "booking")
	}

	// Event delivery is best-effort; the booking already exists.
	if err := h.Events.BookingCreated(ctx, queue.BookingCreatedEvent{
		BookingID: b.ID,
		TourID:    tour.ID,
		TourName:  tour.Name,
		UserID:    u.ID,
		UserEmail: u.Email,
		Price:     b.Price,
		Paid:      b.Paid,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		h.Log.Warn().Err(err).Uint64("booking", b.ID).Msg("booking event not published")
	}

	return c.Redirect(http.StatusFound, h.Cfg.PublicURL+"/my-bookings")
}

// MyBookings lists the authenticated user's bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	q := repository.ParseQuery(c.QueryParams(), repository.BookingAllowed)

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	list, err := h.Bookings.FindAll(ctx, repository.Scope{"user_id": u.ID}, q)
	if err != nil {
		return apperr.Internal(err)
	}
	return respondList(c, list)
}

// BookingScope narrows listings to the nested route's tour.
func BookingScope(c echo.Context) repository.Scope {
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
