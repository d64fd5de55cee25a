// Package repository persists the catalog entities over database/sql and
// renders client collection queries into parameterized SQL.  Sentinel
// errors below let handlers distinguish failure scenarios without matching
// on driver details.
package repository

import "errors"

// ErrEmailExists is returned when a signup or email change collides with an
// existing account.  Handlers translate it into a duplicate-field error.
var ErrEmailExists = errors.New("email already exists")

// ErrResetInvalid is returned when a password-reset token does not match
// any user or has expired.  Handlers translate it into a 400.
var ErrResetInvalid = errors.New("reset token invalid or expired")
