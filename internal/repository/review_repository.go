package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/model"
)

var reviewColumns = []string{"id", "review", "rating", "tour_id", "user_id", "created_at"}

// ReviewAllowed maps the review field names clients may filter, sort and
// project on to their columns.
var ReviewAllowed = map[string]string{
	"id":        "id",
	"review":    "review",
	"rating":    "rating",
	"tour":      "tour_id",
	"user":      "user_id",
	"createdAt": "created_at",
}

type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

func reviewFieldPtr(rv *model.Review, col string) any {
	switch col {
	case "id":
		return &rv.ID
	case "review":
		return &rv.Review
	case "rating":
		return &rv.Rating
	case "tour_id":
		return &rv.TourID
	case "user_id":
		return &rv.UserID
	case "created_at":
		return &rv.CreatedAt
	}
	return new(any)
}

// FindByID fetches one review.
func (r *ReviewRepo) FindByID(ctx context.Context, id uint64) (model.Review, error) {
	var rv model.Review
	dest := make([]any, len(reviewColumns))
	for i, c := range reviewColumns {
		dest[i] = reviewFieldPtr(&rv, c)
	}
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+strings.Join(reviewColumns, ", ")+" FROM reviews WHERE id=? LIMIT 1", id).
		Scan(dest...)
	return rv, err
}

// FindAll lists reviews; nested tour routes pass Scope{"tour_id": id}.
func (r *ReviewRepo) FindAll(ctx context.Context, scope Scope, q Query) ([]model.Review, error) {
	query, args, cols := q.Build("reviews", reviewColumns, scope)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		dest := make([]any, len(cols))
		for i, c := range cols {
			dest[i] = reviewFieldPtr(&rv, c)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Insert persists a review.  One review per user per tour is enforced by a
// unique (tour_id, user_id) index and surfaces as a duplicate-field error.
func (r *ReviewRepo) Insert(ctx context.Context, rv *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (review, rating, tour_id, user_id) VALUES (?,?,?,?)",
		rv.Review, rv.Rating, rv.TourID, rv.UserID)
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
	*rv = created
	return nil
}

// Update patches the review text and rating only; ownership references
// never move.
func (r *ReviewRepo) Update(ctx context.Context, id uint64, patch map[string]any) (model.Review, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	for _, name := range patchOrder(patch) {
		switch name {
		case "review":
			s, ok := patch[name].(string)
			if !ok || strings.TrimSpace(s) == "" {
				return model.Review{}, apperr.BadRequest("Review can not be empty")
			}
			sets = append(sets, "review=?")
			args = append(args, s)
		case "rating":
			n, ok := patch[name].(float64)
			if !ok || n < 1 || n > 5 {
				return model.Review{}, apperr.BadRequest("Rating must be between 1.0 and 5.0")
			}
			sets = append(sets, "rating=?")
			args = append(args, n)
		}
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE reviews SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Review{}, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes a review, sql.ErrNoRows when absent.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
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
