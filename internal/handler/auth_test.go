package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/config"
	"github.com/gotours/tour-booking-api/internal/logger"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/repository"
	"github.com/gotours/tour-booking-api/internal/utils"
)

// stubMail records sends and can be told to fail.
type stubMail struct {
	welcomes int
	resets   []string
	fail     bool
}

func (m *stubMail) SendWelcome(to, name, accountURL string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.welcomes++
	return nil
}

func (m *stubMail) SendPasswordReset(to, name, resetURL string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.resets = append(m.resets, resetURL)
	return nil
}

var testCfg = config.Config{
	Env:        "test",
	PublicURL:  "http://localhost:3000",
	JWTSecret:  "auth-test-secret",
	JWTTTLMin:  90,
	BcryptCost: bcrypt.MinCost,
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, *stubMail) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mail := &stubMail{}
	h := NewAuthHandler(testCfg, repository.NewUserRepo(db), mail, logger.New("test", "test"))
	return h, mock, mail
}

var userCols = []string{
	"id", "name", "email", "photo", "role", "password_hash",
	"password_changed_at", "reset_token_hash", "reset_expires_at", "active",
	"created_at", "updated_at",
}

func userRow(t *testing.T, id uint64, email, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, "Test User", email, "default.jpg", "user", hash,
			nil, nil, nil, 1, now, now)
}

func postJSON(target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials issue token and cookie", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WithArgs("leo@example.com").
			WillReturnRows(userRow(t, 7, "leo@example.com", "password123"))

		c, rec := postJSON("/api/v1/users/login", `{"email":"leo@example.com","password":"password123"}`)
		require.NoError(t, h.Login(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Status string `json:"status"`
			Token  string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "success", body.Status)
		require.NotEmpty(t, body.Token)

		claims, err := utils.VerifySessionToken(testCfg.JWTSecret, body.Token)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), claims.UserID)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.CookieName, cookies[0].Name)
		assert.Equal(t, body.Token, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password answers 401", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WithArgs("leo@example.com").
			WillReturnRows(userRow(t, 7, "leo@example.com", "password123"))

		c, _ := postJSON("/api/v1/users/login", `{"email":"leo@example.com","password":"wrong-password"}`)
		err := h.Login(c)

		ae, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
		assert.Equal(t, "Incorrect email or password", ae.Message)
	})

	t.Run("unknown email answers the same 401", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows(userCols))

		c, _ := postJSON("/api/v1/users/login", `{"email":"ghost@example.com","password":"whatever1"}`)
		err := h.Login(c)

		ae, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
		assert.Equal(t, "Incorrect email or password", ae.Message)
	})

	t.Run("missing fields answer 400", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)
		c, _ := postJSON("/api/v1/users/login", `{"email":"leo@example.com"}`)

		ae, ok := apperr.As(h.Login(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
		assert.Equal(t, "Please provide email and password", ae.Message)
	})
}

func TestSignup(t *testing.T) {
	t.Run("creates account and logs straight in", func(t *testing.T) {
		h, mock, mail := newAuthHandler(t)
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WithArgs(uint64(11)).
			WillReturnRows(userRow(t, 11, "mina@example.com", "password123"))

		c, rec := postJSON("/api/v1/users/signup",
			`{"name":"Mina","email":"mina@example.com","password":"password123","passwordConfirm":"password123"}`)
		require.NoError(t, h.Signup(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, mail.welcomes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("welcome email failure does not block the signup", func(t *testing.T) {
		h, mock, mail := newAuthHandler(t)
		mail.fail = true
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(12, 1))
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WillReturnRows(userRow(t, 12, "rui@example.com", "password123"))

		c, rec := postJSON("/api/v1/users/signup",
			`{"name":"Rui","email":"rui@example.com","password":"password123","passwordConfirm":"password123"}`)
		require.NoError(t, h.Signup(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("password confirmation mismatch answers 400", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)
		c, _ := postJSON("/api/v1/users/signup",
			`{"name":"Mina","email":"mina@example.com","password":"password123","passwordConfirm":"different1"}`)

		ae, ok := apperr.As(h.Signup(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
	})

	t.Run("unknown role falls back to user", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs("Eve", "eve@example.com", sqlmock.AnyArg(), "user").
			WillReturnResult(sqlmock.NewResult(13, 1))
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WillReturnRows(userRow(t, 13, "eve@example.com", "password123"))

		c, _ := postJSON("/api/v1/users/signup",
			`{"name":"Eve","email":"eve@example.com","password":"password123","passwordConfirm":"password123","role":"superadmin"}`)
		require.NoError(t, h.Signup(c))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestForgotPassword(t *testing.T) {
	t.Run("stores hash and mails the plaintext token", func(t *testing.T) {
		h, mock, mail := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WithArgs("leo@example.com").
			WillReturnRows(userRow(t, 7, "leo@example.com", "password123"))
		mock.ExpectExec("UPDATE users SET reset_token_hash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		c, rec := postJSON("/api/v1/users/forgotpassword", `{"email":"leo@example.com"}`)
		require.NoError(t, h.ForgotPassword(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, mail.resets, 1)
		assert.Contains(t, mail.resets[0], "/api/v1/users/resetpassword/")
		// The link carries the plaintext token, never the stored hash.
		raw := mail.resets[0][strings.LastIndex(mail.resets[0], "/")+1:]
		assert.Len(t, raw, 64)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email answers 404", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WillReturnRows(sqlmock.NewRows(userCols))

		c, _ := postJSON("/api/v1/users/forgotpassword", `{"email":"ghost@example.com"}`)
		ae, ok := apperr.As(h.ForgotPassword(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, ae.StatusCode)
		assert.Equal(t, "There is no user with this email address", ae.Message)
	})

	t.Run("mail failure rolls the token back", func(t *testing.T) {
		h, mock, mail := newAuthHandler(t)
		mail.fail = true
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WillReturnRows(userRow(t, 7, "leo@example.com", "password123"))
		mock.ExpectExec("UPDATE users SET reset_token_hash").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE users SET reset_token_hash=NULL").
			WillReturnResult(sqlmock.NewResult(0, 1))

		c, _ := postJSON("/api/v1/users/forgotpassword", `{"email":"leo@example.com"}`)
		ae, ok := apperr.As(h.ForgotPassword(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
		assert.Equal(t, "There was an error sending the email. Try again later", ae.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResetPassword(t *testing.T) {
	t.Run("invalid or expired token answers 400", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WillReturnRows(sqlmock.NewRows(userCols))

		c, _ := postJSON("/api/v1/users/resetpassword/deadbeef",
			`{"password":"newpassword1","passwordConfirm":"newpassword1"}`)
		c.SetParamNames("token")
		c.SetParamValues("deadbeef")

		ae, ok := apperr.As(h.ResetPassword(c))
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
		assert.Equal(t, "Token invalid or has expired", ae.Message)
	})

	t.Run("valid token sets the password and logs in", func(t *testing.T) {
		h, mock, _ := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, name, email, photo, role, password_hash").
			WillReturnRows(userRow(t, 7, "leo@example.com", "password123"))
		mock.ExpectExec("UPDATE users SET password_hash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		c, rec := postJSON("/api/v1/users/resetpassword/cafef00d",
			`{"password":"newpassword1","passwordConfirm":"newpassword1"}`)
		c.SetParamNames("token")
		c.SetParamValues("cafef00d")

		require.NoError(t, h.ResetPassword(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
