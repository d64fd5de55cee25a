package router

import (
	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/handler"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/repository"
)

// registerUserRoutes wires authentication, the self-service /me endpoints
// and the admin-only user CRUD.
func registerUserRoutes(api *echo.Group, d Deps) {
	auth := handler.NewAuthHandler(d.Cfg, d.Users, d.Mail, d.Log)
	users := handler.NewUserHandler(d.Users, d.Images)

	g := api.Group("/v1/users")

	// Open endpoints: account creation, login and the reset flow.
	g.POST("/signup", auth.Signup)
	g.POST("/login", auth.Login)
	g.GET("/logout", auth.Logout)
	g.POST("/forgotpassword", auth.ForgotPassword)
	g.PATCH("/resetpassword/:token", auth.ResetPassword)

	// Everything below requires a session.
	g.Use(middleware.Protect(d.Cfg.JWTSecret, d.Users))

	g.PATCH("/updatemypassword", auth.UpdatePassword)
	g.GET("/me", users.Me)
	g.PATCH("/updateme", users.UpdateMe)
	g.DELETE("/deleteme", users.DeleteMe)

	// Admin CRUD. Listings see active accounts only.
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.GET("", handler.GetAll[model.User](d.Users, "user", repository.UserAllowed,
		func(echo.Context) repository.Scope { return repository.ActiveOnly }))
	g.POST("", users.CreateUser)
	g.GET("/:id", handler.GetOne[model.User](d.Users, "user"))
	g.PATCH("/:id", handler.UpdateOne[model.User](d.Users, "user"))
	g.DELETE("/:id", handler.DeleteOne[model.User](d.Users, "user"))
}
