package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/gotours/tour-booking-api/internal/model"
)

// userColumns is the public column set of the 'users' table.  The password
// hash, reset fields, soft-delete flag and updated_at are internal and are
// only read by the dedicated credential methods below.
var userColumns = []string{"id", "name", "email", "photo", "role", "created_at"}

// UserAllowed maps the user field names clients may filter, sort and
// project on to their columns.
var UserAllowed = map[string]string{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"photo":     "photo",
	"role":      "role",
	"createdAt": "created_at",
}

// ActiveOnly is the ambient filter excluding soft-deleted accounts from
// default reads.  Callers thread it in explicitly so the filtering is
// visible at every call site.
var ActiveOnly = Scope{"active": 1}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userSelect = `SELECT id, name, email, photo, role, password_hash,
	password_changed_at, reset_token_hash, reset_expires_at, active,
	created_at, updated_at FROM users`

func scanUser(scan func(...any) error) (model.User, error) {
	var u model.User
	var resetHash sql.NullString
	var changedAt, resetExp sql.NullTime
	err := scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&changedAt, &resetHash, &resetExp, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if changedAt.Valid {
		u.PasswordChangedAt = &changedAt.Time
	}
	u.ResetTokenHash = resetHash.String
	if resetExp.Valid {
		u.ResetExpiresAt = &resetExp.Time
	}
	return u, nil
}

// Create inserts a signup record with an already-hashed password and
// returns the stored user.  Email uniqueness violations surface as
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (model.User, error) {
	email = model.NormalizeEmail(email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, passwordHash, role)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// GetByEmail fetches an active user by normalized email, including the
// password hash for credential checks.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		userSelect+" WHERE email=? AND active=1 LIMIT 1", model.NormalizeEmail(email))
	return scanUser(row.Scan)
}

// FindByID fetches an active user by id.  Soft-deleted accounts read as
// absent, which also invalidates their outstanding session tokens.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		userSelect+" WHERE id=? AND active=1 LIMIT 1", id)
	return scanUser(row.Scan)
}

// FindAll lists users for the admin endpoints.  The active-only scope is
// passed in by the route rather than hidden here.
func (r *UserRepo) FindAll(ctx context.Context, scope Scope, q Query) ([]model.User, error) {
	query, args, cols := q.Build("users", userColumns, scope)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		dest := make([]any, len(cols))
		for i, c := range cols {
			switch c {
			case "id":
				dest[i] = &u.ID
			case "name":
				dest[i] = &u.Name
			case "email":
				dest[i] = &u.Email
			case "photo":
				dest[i] = &u.Photo
			case "role":
				dest[i] = &u.Role
			case "created_at":
				dest[i] = &u.CreatedAt
			default:
				dest[i] = new(any)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Insert satisfies Store but the admin create route is not defined; users
// are created through signup only.
func (r *UserRepo) Insert(ctx context.Context, u *model.User) error {
	created, err := r.Create(ctx, u.Name, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// Update applies a partial patch of profile fields.  Credential fields are
// not reachable through this path; password changes go through
// UpdatePassword so the change timestamp is stamped.
func (r *UserRepo) Update(ctx context.Context, id uint64, patch map[string]any) (model.User, error) {
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for _, name := range patchOrder(patch) {
		col, ok := UserAllowed[name]
		if !ok || col == "id" || col == "created_at" {
			continue
		}
		val := patch[name]
		if col == "email" {
			if s, ok := val.(string); ok {
				val = model.NormalizeEmail(s)
			}
		}
		sets = append(sets, col+"=?")
		args = append(args, val)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=? AND active=1", args...); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1062 {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete hard-deletes a user (admin operation), sql.ErrNoRows when absent.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate flips the soft-delete flag.  The account disappears from
// default reads but its reviews and bookings stay addressable.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET active=0 WHERE id=?", id)
	return err
}

// UpdatePassword stores a new password hash and stamps the change time one
// second in the past so a token minted in the same second still reads as
// stale.  Reset fields are cleared in the same statement.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?,
			password_changed_at=DATE_SUB(NOW(), INTERVAL 1 SECOND),
			reset_token_hash=NULL, reset_expires_at=NULL
		WHERE id=?`, passwordHash, id)
	return err
}

// SetResetToken stores the one-way hash of a password-reset token with its
// expiry on the active account matching the email.  sql.ErrNoRows when no
// such account exists.
func (r *UserRepo) SetResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_expires_at=? WHERE id=?",
		tokenHash, expiresAt.UTC(), u.ID)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ClearResetToken rolls the reset fields back, the compensating step when
// the reset email cannot be delivered.
func (r *UserRepo) ClearResetToken(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=NULL, reset_expires_at=NULL WHERE id=?", id)
	return err
}

// FindByResetHash resolves an unexpired reset-token hash to its user.
// ErrResetInvalid covers both no-match and expired.
func (r *UserRepo) FindByResetHash(ctx context.Context, tokenHash string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		userSelect+" WHERE reset_token_hash=? AND reset_expires_at > ? AND active=1 LIMIT 1",
		tokenHash, time.Now().UTC())
	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrResetInvalid
		}
		return model.User{}, err
	}
	return u, nil
}
