package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/utils"
)

// CookieName is the session cookie the token travels in for browser
// clients; API clients use the Authorization header instead.  One code path
// serves both.
const CookieName = "jwt"

// userKey is the context key the resolved identity is stored under.
const userKey = "user"

// UserLoader resolves the identity a verified token refers to.  Implemented
// by repository.UserRepo; declared here so tests can stub it.
type UserLoader interface {
	FindByID(ctx context.Context, id uint64) (model.User, error)
}

// CurrentUser returns the identity attached by Protect or LoadUser.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// Protect gates a route behind a valid session token.  Token extraction,
// verification, identity resolution and the staleness check run in order;
// the first failure rejects with 401.  On success the user is attached to
// the request context for downstream handlers.
func Protect(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return apperr.Unauthorized("You are not logged in. Please log in to get access")
			}
			u, err := resolveUser(c, secret, users, raw)
			if err != nil {
				return err
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// LoadUser is the non-blocking variant of Protect: the same checks run, but
// any failure silently proceeds without an identity attached.  Used for
// endpoints that answer differently for anonymous and authenticated
// callers without hard-gating access.
func LoadUser(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := extractToken(c); raw != "" {
				if u, err := resolveUser(c, secret, users, raw); err == nil {
					c.Set(userKey, u)
				}
			}
			return next(c)
		}
	}
}

// resolveUser runs verification, identity resolution and the staleness
// check shared by Protect and LoadUser.
func resolveUser(c echo.Context, secret string, users UserLoader, raw string) (model.User, error) {
	claims, err := utils.VerifySessionToken(secret, raw)
	if err != nil {
		if err == utils.ErrTokenExpired {
			return model.User{}, apperr.Unauthorized("Token has expired. Please log in again")
		}
		return model.User{}, apperr.Unauthorized("Invalid token. Please log in again")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.User{}, apperr.Unauthorized("The user belonging to this token does no longer exist")
	}
	// A token minted before the most recent password change is stale.  This
	// is the sole session-invalidation mechanism; there is no revocation
	// list.
	if u.ChangedPasswordAfter(claims.IssuedAt) {
		return model.User{}, apperr.Unauthorized("User recently changed the password. Please log in again")
	}
	return u, nil
}

// extractToken pulls the session token from the Authorization header or the
// session cookie, header first.
func extractToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}
