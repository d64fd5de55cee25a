package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/handler"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/repository"
)

// registerTourRoutes wires the tour catalogue, its aggregations and geo
// queries, plus the nested review and booking routes.
func registerTourRoutes(api *echo.Group, d Deps) {
	tours := handler.NewTourHandler(d.Tours, d.Reviews, d.Images)

	g := api.Group("/v1/tours")

	listTours := handler.GetAll[model.Tour](d.Tours, "tour", repository.TourAllowed, nil)

	// Public catalogue reads, cached when Redis is up.
	cached := middleware.CacheGET(d.CacheCfg, d.Redis)
	g.GET("", listTours, cached)
	g.GET("/top-5-cheap", listTours, handler.AliasTopTours, cached)
	g.GET("/stats", tours.Stats, cached)
	g.GET("/tours-within/:distance/center/:latlng/unit/:unit", tours.ToursWithin)
	g.GET("/distances/:latlng/unit/:unit", tours.Distances)
	g.GET("/:id", handler.GetOne[model.Tour](d.Tours, "tour", tours.ExpandReviews), cached)

	// Staff-only planning view.
	g.GET("/monthly-plan/:year", tours.MonthlyPlan,
		middleware.Protect(d.Cfg.JWTSecret, d.Users),
		middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide))

	// Catalogue writes are for admins and lead guides.
	staff := []echo.MiddlewareFunc{
		middleware.Protect(d.Cfg.JWTSecret, d.Users),
		middleware.RequireRole(model.RoleAdmin, model.RoleLeadGuide),
	}
	g.POST("", handler.CreateOne[model.Tour](d.Tours, "tour"), staff...)
	g.PATCH("/:id", tours.UpdateTour, staff...)
	g.DELETE("/:id", handler.DeleteOne[model.Tour](d.Tours, "tour"), staff...)

	registerReviewRoutes(api, g, d)
}

// registerReviewRoutes wires both the flat /reviews routes and the nested
// /tours/:tourId/reviews routes onto the same handlers.
func registerReviewRoutes(api, tourGroup *echo.Group, d Deps) {
	protect := middleware.Protect(d.Cfg.JWTSecret, d.Users)

	list := handler.GetAll[model.Review](d.Reviews, "review", repository.ReviewAllowed, handler.ReviewScope)
	create := handler.CreateOne[model.Review](d.Reviews, "review", handler.SetReviewTour, handler.SetReviewUser)

	// Nested under a tour: reviews are written by customers.
	nested := tourGroup.Group("/:tourId/reviews", protect)
	nested.GET("", list)
	nested.POST("", create, middleware.RequireRole(model.RoleUser))

	flat := api.Group("/v1/reviews", protect)
	flat.GET("", list)
	flat.POST("", create, middleware.RequireRole(model.RoleUser))
	flat.GET("/:id", handler.GetOne[model.Review](d.Reviews, "review"))

	moderate := middleware.RequireRole(model.RoleUser, model.RoleAdmin)
	flat.PATCH("/:id", handler.UpdateOne[model.Review](d.Reviews, "review"), moderate)
	flat.DELETE("/:id", handler.DeleteOne[model.Review](d.Reviews, "review"), moderate)
}
