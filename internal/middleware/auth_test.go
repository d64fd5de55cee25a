package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/utils"
)

const secret = "test-secret"

// stubUsers implements UserLoader over a fixed map.
type stubUsers struct{ users map[uint64]model.User }

func (s stubUsers) FindByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func okHandler(c echo.Context) error {
	u, _ := CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"id": u.ID})
}

func newContext(t *testing.T, mutate func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func issue(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := utils.NewSessionToken(secret, userID, 90)
	require.NoError(t, err)
	return tok.Token
}

func TestProtect(t *testing.T) {
	active := model.User{ID: 7, Role: model.RoleUser, Active: true}
	loader := stubUsers{users: map[uint64]model.User{7: active}}
	protect := Protect(secret, loader)(okHandler)

	t.Run("no token", func(t *testing.T) {
		c, _ := newContext(t, nil)
		err := protect(c)
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
		assert.Contains(t, e.Message, "not logged in")
	})

	t.Run("bearer token accepted", func(t *testing.T) {
		c, rec := newContext(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+issue(t, 7))
		})
		require.NoError(t, protect(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie token accepted", func(t *testing.T) {
		c, rec := newContext(t, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: issue(t, 7)})
		})
		require.NoError(t, protect(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		c, _ := newContext(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer garbage")
		})
		e, ok := apperr.As(protect(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
		assert.Contains(t, e.Message, "Invalid token")
	})

	t.Run("user deleted since issuance", func(t *testing.T) {
		c, _ := newContext(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+issue(t, 99))
		})
		e, ok := apperr.As(protect(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
		assert.Contains(t, e.Message, "does no longer exist")
	})

	t.Run("token issued before password change is stale", func(t *testing.T) {
		changed := time.Now().UTC().Add(time.Hour)
		stale := stubUsers{users: map[uint64]model.User{
			7: {ID: 7, Role: model.RoleUser, PasswordChangedAt: &changed},
		}}
		h := Protect(secret, stale)(okHandler)
		c, _ := newContext(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+issue(t, 7))
		})
		e, ok := apperr.As(h(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
		assert.Contains(t, e.Message, "recently changed")
	})
}

func TestLoadUserNeverRejects(t *testing.T) {
	loader := stubUsers{users: map[uint64]model.User{7: {ID: 7, Role: model.RoleUser}}}
	handler := func(c echo.Context) error {
		_, ok := CurrentUser(c)
		return c.JSON(http.StatusOK, echo.Map{"authenticated": ok})
	}
	load := LoadUser(secret, loader)(handler)

	t.Run("anonymous passes through", func(t *testing.T) {
		c, rec := newContext(t, nil)
		require.NoError(t, load(c))
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("bad token passes through without identity", func(t *testing.T) {
		c, rec := newContext(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer garbage")
		})
		require.NoError(t, load(c))
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		c, rec := newContext(t, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+issue(t, 7))
		})
		require.NoError(t, load(c))
		assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	})
}

func TestRequireRole(t *testing.T) {
	gate := RequireRole(model.RoleAdmin, model.RoleLeadGuide)(okHandler)

	t.Run("allowed role passes", func(t *testing.T) {
		c, rec := newContext(t, nil)
		c.Set("user", model.User{ID: 1, Role: model.RoleAdmin})
		require.NoError(t, gate(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong role is forbidden even with a valid identity", func(t *testing.T) {
		c, _ := newContext(t, nil)
		c.Set("user", model.User{ID: 1, Role: model.RoleUser})
		e, ok := apperr.As(gate(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, e.StatusCode)
	})

	t.Run("missing identity is forbidden", func(t *testing.T) {
		c, _ := newContext(t, nil)
		e, ok := apperr.As(gate(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, e.StatusCode)
	})
}
