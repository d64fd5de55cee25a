package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/model"
)

var bookingColumns = []string{"id", "tour_id", "user_id", "price", "paid", "created_at"}

// BookingAllowed maps the booking field names clients may filter, sort and
// project on to their columns.
var BookingAllowed = map[string]string{
	"id":        "id",
	"tour":      "tour_id",
	"user":      "user_id",
	"price":     "price",
	"paid":      "paid",
	"createdAt": "created_at",
}

type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

func bookingFieldPtr(b *model.Booking, col string) any {
	switch col {
	case "id":
		return &b.ID
	case "tour_id":
		return &b.TourID
	case "user_id":
		return &b.UserID
	case "price":
		return &b.Price
	case "paid":
		return &b.Paid
	case "created_at":
		return &b.CreatedAt
	}
	return new(any)
}

// FindByID fetches one booking.
func (r *BookingRepo) FindByID(ctx context.Context, id uint64) (model.Booking, error) {
	var b model.Booking
	dest := make([]any, len(bookingColumns))
	for i, c := range bookingColumns {
		dest[i] = bookingFieldPtr(&b, c)
	}
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+strings.Join(bookingColumns, ", ")+" FROM bookings WHERE id=? LIMIT 1", id).
		Scan(dest...)
	return b, err
}

// FindAll lists bookings; /my-bookings passes Scope{"user_id": id} and the
// nested tour route passes Scope{"tour_id": id}.
func (r *BookingRepo) FindAll(ctx context.Context, scope Scope, q Query) ([]model.Booking, error) {
	query, args, cols := q.Build("bookings", bookingColumns, scope)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		dest := make([]any, len(cols))
		for i, c := range cols {
			dest[i] = bookingFieldPtr(&b, c)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Insert persists a booking.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (tour_id, user_id, price, paid) VALUES (?,?,?,?)",
		b.TourID, b.UserID, b.Price, b.Paid)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.FindByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = created
	return nil
}

// Update patches price and paid status; ownership references never move.
func (r *BookingRepo) Update(ctx context.Context, id uint64, patch map[string]any) (model.Booking, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	for _, name := range patchOrder(patch) {
		switch name {
		case "price":
			n, ok := patch[name].(float64)
			if !ok || n <= 0 {
				return model.Booking{}, apperr.BadRequest("Booking must have a price")
			}
			sets = append(sets, "price=?")
			args = append(args, n)
		case "paid":
			v, ok := patch[name].(bool)
			if !ok {
				return model.Booking{}, apperr.BadRequest("Invalid value for paid")
			}
			sets = append(sets, "paid=?")
			args = append(args, v)
		}
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE bookings SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Booking{}, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes a booking, sql.ErrNoRows when absent.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
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
