// Package router wires handlers, middleware and dependencies into the Echo
// instance. Each resource registers its routes in its own file.
package router

import (
	"database/sql"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/config"
	"github.com/gotours/tour-booking-api/internal/handler"
	"github.com/gotours/tour-booking-api/internal/image"
	"github.com/gotours/tour-booking-api/internal/logger"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/payment"
	"github.com/gotours/tour-booking-api/internal/repository"
	"github.com/gotours/tour-booking-api/internal/service"
)

// Deps carries everything the route tree needs. main builds it once.
type Deps struct {
	Cfg      config.Config
	RateCfg  config.RateLimitConfig
	CacheCfg config.CacheConfig
	Log      *logger.Logger
	DB       *sql.DB
	Redis    *redis.Client

	Users    *repository.UserRepo
	Tours    *repository.TourRepo
	Reviews  *repository.ReviewRepo
	Bookings *repository.BookingRepo

	Mail     handler.Mailer
	Payments *payment.Client
	Events   *service.Publisher
	Images   *image.Processor
}

// New assembles the Echo instance: global middleware, the health check and
// the /api/v1 route tree with its shared rate limit.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Cfg, d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.Secure())
	e.Use(echomw.Gzip())
	// The 10kb cap covers JSON bodies; image uploads arrive as multipart
	// and are bounded by the processor instead.
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Skipper: func(c echo.Context) bool {
			ct := c.Request().Header.Get(echo.HeaderContentType)
			return strings.HasPrefix(ct, echo.MIMEMultipartForm)
		},
		Limit: "10kb",
	}))
	e.Use(requestLogger(d.Log))
	e.Static("/img", d.Cfg.UploadDir)

	e.GET("/healthz", handler.Health(d.DB, d.Redis))

	api := e.Group("/api", middleware.RateLimit(d.RateCfg, d.Redis))
	registerUserRoutes(api, d)
	registerTourRoutes(api, d)
	registerBookingRoutes(api, d)
	return e
}

// requestLogger emits one structured line per request.
func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Err(v.Error).
				Msg("request")
			return nil
		},
	})
}

// errorHandler renders every error through the one response envelope.
// Operational errors carry their own status and message. In development
// the cause and a stack trace ride along; in production anything
// non-operational collapses to a generic message so internals never leak.
func errorHandler(cfg config.Config, log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ae, ok := apperr.As(err)
		if !ok {
			if he, isHTTP := err.(*echo.HTTPError); isHTTP {
				msg, _ := he.Message.(string)
				if msg == "" {
					msg = http.StatusText(he.Code)
				}
				ae = apperr.New(he.Code, msg)
			} else {
				ae = apperr.Internal(err)
			}
		}

		if !ae.Operational {
			log.Error().Err(ae.Cause).Str("uri", c.Request().RequestURI).Msg("unexpected error")
		}

		body := echo.Map{
			"status":  ae.Status,
			"message": ae.Message,
		}
		if cfg.IsProduction() {
			if !ae.Operational {
				body["message"] = "Something went wrong!"
			}
		} else {
			if ae.Cause != nil {
				body["error"] = ae.Cause.Error()
			}
			body["stack"] = string(debug.Stack())
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(ae.StatusCode)
		} else {
			werr = c.JSON(ae.StatusCode, body)
		}
		if werr != nil {
			log.Error().Err(werr).Msg("error response write failed")
		}
	}
}
