package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/config"
	"github.com/gotours/tour-booking-api/internal/logger"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/model"
	"github.com/gotours/tour-booking-api/internal/repository"
	"github.com/gotours/tour-booking-api/internal/utils"
)

// Mailer is the outbound email collaborator.  Implemented by email.Mailer;
// declared here so tests can stub delivery failures.
type Mailer interface {
	SendWelcome(to, name, accountURL string) error
	SendPasswordReset(to, name, resetURL string) error
}

// AuthHandler bundles dependencies for the authentication endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Mail  Mailer
	Log   *logger.Logger
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, mail Mailer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Mail: mail, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordUpdateReq struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// sendToken mints a session token for the user and delivers it both in the
// response body and as an HTTP-only cookie with the same expiry, so browser
// and API clients share one code path.
func (h *AuthHandler) sendToken(c echo.Context, code int, u model.User) error {
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, h.Cfg.JWTTTLMin)
	if err != nil {
		return apperr.Internal(err)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    tok.Token,
		Expires:  tok.Exp,
		HttpOnly: true,
		Path:     "/",
		Secure:   h.Cfg.IsProduction(),
	})
	return c.JSON(code, echo.Map{
		"status": "success",
		"token":  tok.Token,
		"data":   echo.Map{"user": u},
	})
}

// Signup creates an account and logs it straight in.  The confirmation
// password must equal the password; neither is ever persisted as given.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	req.Email = model.NormalizeEmail(req.Email)
	if err := model.ValidateSignup(req.Name, req.Email); err != nil {
		return err
	}
	if err := model.ValidateCredentials(req.Password, req.PasswordConfirm); err != nil {
		return err
	}
	role := req.Role
	if !model.ValidRole(role) {
		role = model.RoleUser
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	u, err := h.Users.Create(ctx, req.Name, req.Email, hash, role)
	if err != nil {
		return translateStoreErr(err, "user")
	}

	// Welcome mail is best-effort; the account exists either way.
	if err := h.Mail.SendWelcome(u.Email, u.Name, h.Cfg.PublicURL+"/me"); err != nil {
		h.Log.Warn().Err(err).Str("email", u.Email).Msg("welcome email failed")
	}
	return h.sendToken(c, http.StatusCreated, u)
}

// Login verifies credentials and issues a session token.  Unknown email
// and wrong password answer identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.BadRequest("Please provide email and password")
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Unauthorized("Incorrect email or password")
		}
		return apperr.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.Unauthorized("Incorrect email or password")
	}
	return h.sendToken(c, http.StatusOK, u)
}

// Logout overwrites the session cookie with a short-lived dummy value.
// The token itself stays valid until expiry; there is no revocation list.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Path:     "/",
	})
	return respondMessage(c, http.StatusOK, "Logged out")
}

// ForgotPassword starts the reset flow: a high-entropy token is generated,
// only its hash and a 10-minute expiry are stored, and the plaintext goes
// out by email.  An unknown email answers an explicit 404.  If delivery
// fails the stored hash and expiry are rolled back so the token can never
// be consumed after a failed notification.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return apperr.BadRequest("Please provide your email address")
	}

	raw, hash, err := utils.NewResetToken()
	if err != nil {
		return apperr.Internal(err)
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	u, err := h.Users.SetResetToken(ctx, req.Email, hash, time.Now().UTC().Add(10*time.Minute))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("There is no user with this email address")
		}
		return apperr.Internal(err)
	}

	resetURL := h.Cfg.PublicURL + "/api/v1/users/resetpassword/" + raw
	if err := h.Mail.SendPasswordReset(u.Email, u.Name, resetURL); err != nil {
		if clearErr := h.Users.ClearResetToken(ctx, u.ID); clearErr != nil {
			h.Log.Error().Err(clearErr).Uint64("user", u.ID).Msg("reset token rollback failed")
		}
		return apperr.New(http.StatusInternalServerError,
			"There was an error sending the email. Try again later")
	}
	return respondMessage(c, http.StatusOK, "Your password reset token has been sent")
}

// ResetPassword consumes a reset token: the plaintext from the URL is
// hashed the same way and matched against an unexpired stored hash.  On
// match the new password is set, the reset fields are cleared and the
// password-change timestamp advances, invalidating every previously issued
// session token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req passwordUpdateReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if err := model.ValidateCredentials(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	u, err := h.Users.FindByResetHash(ctx, utils.HashResetRaw(c.Param("token")))
	if err != nil {
		if errors.Is(err, repository.ErrResetInvalid) {
			return apperr.BadRequest("Token invalid or has expired")
		}
		return apperr.Internal(err)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal(err)
	}
	return h.sendToken(c, http.StatusOK, u)
}

// UpdatePassword changes the password of the authenticated user after
// verifying the current one.  Runs behind Protect.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	var req passwordUpdateReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.PasswordCurrent) {
		return apperr.Unauthorized("Invalid password. Try again")
	}
	if err := model.ValidateCredentials(req.Password, req.PasswordConfirm); err != nil {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal(err)
	}
	return h.sendToken(c, http.StatusOK, u)
}
