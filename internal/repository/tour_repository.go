package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/model"
)

// tourColumns is the full public column set of the 'tours' table, in scan
// order.  updated_at is internal and never projected.
var tourColumns = []string{
	"id", "name", "duration", "max_group_size", "difficulty",
	"ratings_average", "ratings_quantity", "price", "price_discount",
	"summary", "description", "image_cover", "images",
	"start_lat", "start_lng", "start_address", "created_at",
}

// TourAllowed maps the field names clients may filter, sort and project on
// to their columns.
var TourAllowed = map[string]string{
	"id":              "id",
	"name":            "name",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"summary":         "summary",
	"description":     "description",
	"imageCover":      "image_cover",
	"images":          "images",
	"startLat":        "start_lat",
	"startLng":        "start_lng",
	"startAddress":    "start_address",
	"createdAt":       "created_at",
}

type TourRepo struct{ DB *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{DB: db} }

// tourFieldPtr maps a column name to the destination it scans into.  Images
// are stored comma-separated and need the string intermediate.
func tourFieldPtr(t *model.Tour, images *string, col string) any {
	switch col {
	case "id":
		return &t.ID
	case "name":
		return &t.Name
	case "duration":
		return &t.Duration
	case "max_group_size":
		return &t.MaxGroupSize
	case "difficulty":
		return &t.Difficulty
	case "ratings_average":
		return &t.RatingsAverage
	case "ratings_quantity":
		return &t.RatingsQuantity
	case "price":
		return &t.Price
	case "price_discount":
		return &t.PriceDiscount
	case "summary":
		return &t.Summary
	case "description":
		return &t.Description
	case "image_cover":
		return &t.ImageCover
	case "images":
		return images
	case "start_lat":
		return &t.StartLat
	case "start_lng":
		return &t.StartLng
	case "start_address":
		return &t.StartAddress
	case "created_at":
		return &t.CreatedAt
	}
	return new(any)
}

func scanTour(scan func(...any) error, cols []string) (model.Tour, error) {
	var t model.Tour
	var images string
	dest := make([]any, len(cols))
	for i, c := range cols {
		dest[i] = tourFieldPtr(&t, &images, c)
	}
	if err := scan(dest...); err != nil {
		return model.Tour{}, err
	}
	if images != "" {
		t.Images = strings.Split(images, ",")
	}
	return t, nil
}

// FindByID fetches one tour with its start dates.
func (r *TourRepo) FindByID(ctx context.Context, id uint64) (model.Tour, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+strings.Join(tourColumns, ", ")+" FROM tours WHERE id=? LIMIT 1", id)
	t, err := scanTour(row.Scan, tourColumns)
	if err != nil {
		return model.Tour{}, err
	}
	dates, err := r.startDates(ctx, id)
	if err != nil {
		return model.Tour{}, err
	}
	t.StartDates = dates
	return t, nil
}

func (r *TourRepo) startDates(ctx context.Context, tourID uint64) ([]time.Time, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT starts_at FROM tour_start_dates WHERE tour_id=? ORDER BY starts_at", tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// FindAll lists tours per the ambient scope and client query.
func (r *TourRepo) FindAll(ctx context.Context, scope Scope, q Query) ([]model.Tour, error) {
	query, args, cols := q.Build("tours", tourColumns, scope)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows.Scan, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Insert persists a new tour and its start dates, then re-reads the record
// so generated fields come back filled.
func (r *TourRepo) Insert(ctx context.Context, t *model.Tour) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tours
			(name, duration, max_group_size, difficulty, ratings_average,
			 ratings_quantity, price, price_discount, summary, description,
			 image_cover, images, start_lat, start_lng, start_address)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Name, t.Duration, t.MaxGroupSize, t.Difficulty, t.RatingsAverage,
		t.RatingsQuantity, t.Price, t.PriceDiscount, t.Summary, t.Description,
		t.ImageCover, strings.Join(t.Images, ","), t.StartLat, t.StartLng, t.StartAddress)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, d := range t.StartDates {
		if _, err := r.DB.ExecContext(ctx,
			"INSERT INTO tour_start_dates (tour_id, starts_at) VALUES (?,?)", id, d); err != nil {
			return err
		}
	}
	created, err := r.FindByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = created
	return nil
}

// Update applies a partial patch of exposed field names, re-running the
// relevant validation on each changed field, and returns the updated tour.
func (r *TourRepo) Update(ctx context.Context, id uint64, patch map[string]any) (model.Tour, error) {
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for _, name := range patchOrder(patch) {
		col, ok := TourAllowed[name]
		if !ok || col == "id" || col == "created_at" {
			continue
		}
		val, err := tourPatchValue(name, patch[name])
		if err != nil {
			return model.Tour{}, err
		}
		sets = append(sets, col+"=?")
		args = append(args, val)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE tours SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Tour{}, err
		}
	}
	return r.FindByID(ctx, id)
}

// tourPatchValue validates one changed field and converts it to its column
// value.
func tourPatchValue(name string, v any) (any, error) {
	switch name {
	case "difficulty":
		s, _ := v.(string)
		switch s {
		case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyDifficult:
			return s, nil
		}
		return nil, apperr.BadRequest("Difficulty is either: easy, medium, difficult")
	case "ratingsAverage":
		n, ok := v.(float64)
		if !ok || n < 1 || n > 5 {
			return nil, apperr.BadRequest("Rating must be between 1.0 and 5.0")
		}
		return n, nil
	case "price", "duration", "maxGroupSize":
		n, ok := v.(float64)
		if !ok || n <= 0 {
			return nil, apperr.BadRequest(fmt.Sprintf("Invalid value for %s", name))
		}
		return n, nil
	case "images":
		if list, ok := v.([]string); ok {
			return strings.Join(list, ","), nil
		}
		if list, ok := v.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, e := range list {
				if s, ok := e.(string); ok {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ","), nil
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, apperr.BadRequest("Invalid value for images")
	}
	return v, nil
}

// Delete removes a tour, sql.ErrNoRows when absent.
func (r *TourRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tours WHERE id=?", id)
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

// TourStats is one per-difficulty aggregation row.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// Stats groups well-rated tours (ratings_average >= 4.5) by difficulty.
func (r *TourRepo) Stats(ctx context.Context) ([]TourStats, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT UPPER(difficulty),
			COUNT(*),
			COALESCE(SUM(ratings_quantity), 0),
			COALESCE(AVG(ratings_average), 0),
			COALESCE(AVG(price), 0),
			COALESCE(MIN(price), 0),
			COALESCE(MAX(price), 0)
		FROM tours
		WHERE ratings_average >= 4.5
		GROUP BY difficulty
		ORDER BY AVG(price) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TourStats, 0)
	for rows.Next() {
		var s TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyPlanEntry is one month of scheduled tour starts.
type MonthlyPlanEntry struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// MonthlyPlan counts tour starts per month of the given year, busiest month
// first.
func (r *TourRepo) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT MONTH(d.starts_at),
			COUNT(*),
			GROUP_CONCAT(t.name ORDER BY t.name SEPARATOR ',')
		FROM tour_start_dates d
		JOIN tours t ON t.id = d.tour_id
		WHERE YEAR(d.starts_at) = ?
		GROUP BY MONTH(d.starts_at)
		ORDER BY COUNT(*) DESC, MONTH(d.starts_at) ASC`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MonthlyPlanEntry, 0)
	for rows.Next() {
		var e MonthlyPlanEntry
		var names string
		if err := rows.Scan(&e.Month, &e.NumTourStarts, &names); err != nil {
			return nil, err
		}
		if names != "" {
			e.Tours = strings.Split(names, ",")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// haversineKm computes the great-circle distance in kilometers between the
// query point and each tour's start location, inside SQL.
const haversineKm = `(6371 * ACOS(
	COS(RADIANS(?)) * COS(RADIANS(start_lat)) * COS(RADIANS(start_lng) - RADIANS(?))
	+ SIN(RADIANS(?)) * SIN(RADIANS(start_lat))))`

// Within lists tours whose start location lies inside radiusKm of the given
// point.
func (r *TourRepo) Within(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+strings.Join(tourColumns, ", ")+` FROM tours
		WHERE `+haversineKm+` <= ?
		ORDER BY id ASC`,
		lat, lng, lat, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows.Scan, tourColumns)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Distances returns every tour's distance from the given point, nearest
// first.  The multiplier converts kilometers to the requested unit.
func (r *TourRepo) Distances(ctx context.Context, lat, lng, multiplier float64) ([]model.Tour, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, `+haversineKm+` * ? AS distance
		FROM tours
		ORDER BY distance ASC, id ASC`,
		lat, lng, lat, multiplier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Tour, 0)
	for rows.Next() {
		var t model.Tour
		if err := rows.Scan(&t.ID, &t.Name, &t.Distance); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// patchOrder returns patch keys sorted so rendered SQL is deterministic.
func patchOrder(patch map[string]any) []string {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
