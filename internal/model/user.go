package model

import (
	"strings"
	"time"

	"github.com/gotours/tour-booking-api/internal/apperr"
)

// Roles a user account can hold.  Guides and lead guides manage tours,
// admins manage everything.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// User mirrors the 'users' table.  The password hash, soft-delete flag and
// password-reset fields never serialize outward.
type User struct {
	ID                uint64     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo"`
	Role              string     `json:"role"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    string     `json:"-"`
	ResetExpiresAt    *time.Time `json:"-"`
	Active            bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"-"`
}

// ValidRole reports whether r is one of the fixed role enumeration values.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// NormalizeEmail lowercases and trims an email address the way the users
// table stores it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials checks a new password pair.  The confirmation must
// equal the password; the confirmation itself is never persisted.
func ValidateCredentials(password, passwordConfirm string) error {
	if len(password) < 8 {
		return apperr.BadRequest("The password must be at least 8 characters")
	}
	if password != passwordConfirm {
		return apperr.BadRequest("The passwords are not the same!")
	}
	return nil
}

// ValidateSignup checks the identity fields supplied at signup.
func ValidateSignup(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.BadRequest("Please tell us your name")
	}
	if !strings.Contains(email, "@") || strings.TrimSpace(email) == "" {
		return apperr.BadRequest("Please provide a valid email address")
	}
	return nil
}

// ChangedPasswordAfter reports whether the password changed after the given
// token issue time.  Tokens minted before the change are stale.
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}
