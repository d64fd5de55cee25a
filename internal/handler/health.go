package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health reports process liveness plus the state of the two backing
// stores. The endpoint stays 200 even when Redis is down because the API
// degrades rather than fails without it.
func Health(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := timeoutCtx(c)
		defer cancel()

		dbState := "up"
		code := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			dbState = "down"
			code = http.StatusServiceUnavailable
		}
		redisState := "disabled"
		if rdb != nil {
			redisState = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisState = "down"
			}
		}
		return c.JSON(code, echo.Map{
			"status": "success",
			"data": echo.Map{
				"database": dbState,
				"redis":    redisState,
			},
		})
	}
}
