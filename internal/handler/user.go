package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/image"
	"github.com/gotours/tour-booking-api/internal/middleware"
	"github.com/gotours/tour-booking-api/internal/repository"
)

// UserHandler serves the self-service /me endpoints. Admin CRUD on users
// goes through the generic factory and is wired in the router.
type UserHandler struct {
	Users  *repository.UserRepo
	Images *image.Processor
}

func NewUserHandler(users *repository.UserRepo, images *image.Processor) *UserHandler {
	return &UserHandler{Users: users, Images: images}
}

// Me returns the authenticated user's own record.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	return respond(c, http.StatusOK, echo.Map{"user": u})
}

// UpdateMe lets the user change name, email and photo. Password fields are
// rejected outright so the bcrypt path in the auth handler stays the only
// way to change credentials.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}

	patch := map[string]any{}
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		for _, field := range []string{"name", "email"} {
			if v := c.FormValue(field); v != "" {
				patch[field] = v
			}
		}
		if c.FormValue("password") != "" || c.FormValue("passwordConfirm") != "" {
			return apperr.BadRequest("This route is not for password updates. Please use /updatemypassword")
		}
		if fh, err := c.FormFile("photo"); err == nil {
			name := fmt.Sprintf("user-%d-%d.jpeg", u.ID, time.Now().Unix())
			stored, err := h.Images.Save(fh, name, 500, 500)
			if err != nil {
				return apperr.BadRequest("Could not process the uploaded image")
			}
			patch["photo"] = stored
		}
	} else {
		body, err := bindPatch(c)
		if err != nil {
			return err
		}
		if _, ok := body["password"]; ok {
			return apperr.BadRequest("This route is not for password updates. Please use /updatemypassword")
		}
		if _, ok := body["passwordConfirm"]; ok {
			return apperr.BadRequest("This route is not for password updates. Please use /updatemypassword")
		}
		for _, field := range []string{"name", "email"} {
			if v, ok := body[field].(string); ok && v != "" {
				patch[field] = v
			}
		}
	}

	if len(patch) == 0 {
		return respond(c, http.StatusOK, echo.Map{"user": u})
	}

	ctx, cancel := timeoutCtx(c)
	defer cancel()
	updated, err := h.Users.Update(ctx, u.ID, patch)
	if err != nil {
		return translateStoreErr(err, "user")
	}
	return respond(c, http.StatusOK, echo.Map{"user": updated})
}

// DeleteMe deactivates the account instead of deleting it. The row stays
// for bookkeeping but drops out of every query and refuses logins.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("You are not logged in. Please log in to get access")
	}
	ctx, cancel := timeoutCtx(c)
	defer cancel()
	if err := h.Users.Deactivate(ctx, u.ID); err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateUser exists so the admin route table is complete; accounts are
// created through signup.
func (h *UserHandler) CreateUser(c echo.Context) error {
	return apperr.New(http.StatusInternalServerError,
		"This route is not defined. Please use /signup instead")
}
