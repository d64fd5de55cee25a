// Package apperr defines the operational error model shared by handlers,
// middleware and the central error handler.  An *Error carries the HTTP
// status to respond with and a message that is safe to show the client.
// Errors not created by this package are treated as programming faults and
// collapse to a generic 500 response in production.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-sql-driver/mysql"
)

// Error is the canonical application error.  Operational errors describe
// anticipated failures (bad input, missing record, auth failure) whose
// message may be exposed to clients in any environment.
type Error struct {
	StatusCode  int    // HTTP status code of the response
	Status      string // "fail" for 4xx, "error" for 5xx
	Message     string // client-safe description
	Operational bool   // false only for unexpected internal faults
	Cause       error  // underlying error, for server-side logging only
}

// Error implements the error interface with the client-safe message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap lets errors.Is/errors.As traverse the cause chain.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an operational error with the given status code and message.
func New(code int, msg string) *Error {
	return &Error{
		StatusCode:  code,
		Status:      statusWord(code),
		Message:     msg,
		Operational: true,
	}
}

func statusWord(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

// BadRequest reports malformed or missing input (400).
func BadRequest(msg string) *Error { return New(http.StatusBadRequest, msg) }

// Unauthorized reports a missing, invalid or expired credential (401).
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }

// Forbidden reports an authenticated caller with an insufficient role (403).
func Forbidden(msg string) *Error { return New(http.StatusForbidden, msg) }

// NotFound reports an absent record (404).
func NotFound(msg string) *Error { return New(http.StatusNotFound, msg) }

// Conflict reports a duplicate unique field.  The original API answered
// duplicates with 400 rather than 409, and clients depend on that.
func Conflict(msg string) *Error { return New(http.StatusBadRequest, msg) }

// Internal wraps an unexpected fault.  It is the only non-operational
// constructor: in production the client sees a generic message instead.
func Internal(cause error) *Error {
	return &Error{
		StatusCode:  http.StatusInternalServerError,
		Status:      "error",
		Message:     "Something went wrong!",
		Operational: false,
		Cause:       cause,
	}
}

// As extracts an *Error from any error chain, reporting ok=false when the
// chain holds no application error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

const mysqlDupEntry = 1062

// FromDB translates database failures into the operational taxonomy.  The
// resource name feeds the not-found message ("tour", "user", ...).  Unknown
// failures are wrapped as internal errors.
func FromDB(err error, resource string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound("No " + resource + " found with that ID")
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDupEntry {
		return Conflict("Duplicate field value. Please use another value")
	}
	return Internal(err)
}
