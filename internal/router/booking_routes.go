package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/handler"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/repository"
)

// registerBookingRoutes wires the checkout flow and the booking records.
// Every booking route requires a session.
func registerBookingRoutes(api *echo.Group, d Deps) {
	bookings := handler.NewBookingHandler(d.Cfg, d.Bookings, d.Tours, d.Payments, d.Events, d.Log)

	g := api.Group("/v1/bookings", middleware.Protect(d.Cfg.JWTSecret, d.Users))

	g.GET("/checkout-session/:tourId", bookings.GetCheckoutSession)
	g.GET("/checkout-complete", bookings.CheckoutComplete)
	g.GET("/my-bookings", bookings.MyBookings)

	// Record administration is for staff.
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide))
	g.GET("", handler.GetAll[model.Booking](d.Bookings, "booking", repository.BookingAllowed, handler.BookingScope))
	g.POST("", handler.CreateOne[model.Booking](d.Bookings, "booking"))
	g.GET("/:id", handler.GetOne[model.Booking](d.Bookings, "booking"))
	g.PATCH("/:id", handler.UpdateOne[model.Booking](d.Bookings, "booking"))
	g.DELETE("/:id", handler.DeleteOne[model.Booking](d.Bookings, "booking"))

	// Nested listing of one tour's bookings.
	api.GET("/v1/tours/:tourId/bookings",
		handler.GetAll[model.Booking](d.Bookings, "booking", repository.BookingAllowed, handler.BookingScope),
		middleware.Protect(d.Cfg.JWTSecret, d.Users),
		middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide))
}
