// Package handler implements the HTTP surface: the generic CRUD factory,
// authentication, and the resource-specific endpoints built on top of it.
// Every response uses the {status, data?, message?, results?} envelope and
// every failure is returned as an error value for the central error
// handler; nothing writes its own error response.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database and outbound network call made while
// serving one request.
const dbTimeout = 5 * time.Second

func timeoutCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// respond writes a success envelope around one record or document.
func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, echo.Map{"status": "success", "data": data})
}

// respondList writes a success envelope around a collection with its
// result count.
func respondList[T any](c echo.Context, list []T) error {
	return c.JSON(200, echo.Map{"status": "success", "results": len(list), "data": list})
}

// respondMessage writes a success envelope carrying only a message.
func respondMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"status": "success", "message": msg})
}
