package repository

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAllowed = map[string]string{
	"id":             "id",
	"price":          "price",
	"duration":       "duration",
	"ratingsAverage": "ratings_average",
	"name":           "name",
	"createdAt":      "created_at",
}

func parse(t *testing.T, raw string) Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return ParseQuery(values, testAllowed)
}

func TestParseQueryFilters(t *testing.T) {
	q := parse(t, "duration=5&price[gte]=500&price[lt]=2000")
	sql, args, _ := q.Build("tours", []string{"id", "name", "price", "duration"}, nil)

	assert.Equal(t,
		"SELECT id, name, price, duration FROM tours"+
			" WHERE duration = ? AND price < ? AND price >= ?"+
			" ORDER BY id ASC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{"5", "2000", "500", 100, 0}, args)
}

func TestParseQueryIgnoresReservedAndUnknownKeys(t *testing.T) {
	q := parse(t, "page=3&sort=price&limit=10&fields=name&passwordHash=x&secret[gte]=1")
	sql, _, _ := q.Build("tours", []string{"id", "name"}, nil)
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "passwordHash")
	assert.NotContains(t, sql, "secret")
}

func TestParseQuerySort(t *testing.T) {
	t.Run("descending with tiebreak", func(t *testing.T) {
		q := parse(t, "sort=-price,ratingsAverage")
		sql, _, _ := q.Build("tours", []string{"id", "price"}, nil)
		assert.Contains(t, sql, "ORDER BY price DESC, ratings_average ASC, id ASC")
	})

	t.Run("default is stable implicit order", func(t *testing.T) {
		q := parse(t, "")
		sql, _, _ := q.Build("tours", []string{"id", "price"}, nil)
		assert.Contains(t, sql, "ORDER BY id ASC")
	})

	t.Run("unknown sort fields dropped", func(t *testing.T) {
		q := parse(t, "sort=-passwordHash,price")
		sql, _, _ := q.Build("tours", []string{"id", "price"}, nil)
		assert.Contains(t, sql, "ORDER BY price ASC, id ASC")
	})
}

func TestParseQueryProjection(t *testing.T) {
	t.Run("explicit fields keep id for addressability", func(t *testing.T) {
		q := parse(t, "fields=name,price")
		sql, _, cols := q.Build("tours", []string{"id", "name", "price", "duration"}, nil)
		assert.Equal(t, []string{"id", "name", "price"}, cols)
		assert.Contains(t, sql, "SELECT id, name, price FROM tours")
	})

	t.Run("default selects all public columns", func(t *testing.T) {
		all := []string{"id", "name", "price", "duration"}
		q := parse(t, "")
		_, _, cols := q.Build("tours", all, nil)
		assert.Equal(t, all, cols)
	})
}

func TestParseQueryPagination(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 100, 0},
		{"page 1 explicit", "page=1&limit=2", 2, 0},
		{"page 2", "page=2&limit=2", 2, 2},
		{"page far past the end still builds", "page=9999&limit=50", 50, 499900},
		{"garbage falls back to defaults", "page=abc&limit=-3", 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := parse(t, tt.raw)
			_, args, _ := q.Build("tours", []string{"id"}, nil)
			require.GreaterOrEqual(t, len(args), 2)
			assert.Equal(t, tt.wantLimit, args[len(args)-2])
			assert.Equal(t, tt.wantOffset, args[len(args)-1])
		})
	}
}

func TestBuildComposesScopeBeforeFilters(t *testing.T) {
	q := parse(t, "price[gte]=100")
	sql, args, _ := q.Build("reviews", []string{"id", "price"}, Scope{"tour_id": uint64(7), "active": 1})

	assert.Equal(t,
		"SELECT id, price FROM reviews"+
			" WHERE active = ? AND tour_id = ? AND price >= ?"+
			" ORDER BY id ASC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{1, uint64(7), "100", 100, 0}, args)
}

func TestSplitFilterKey(t *testing.T) {
	tests := []struct {
		key      string
		wantName string
		wantOp   string
	}{
		{"price", "price", "="},
		{"price[gte]", "price", ">="},
		{"price[gt]", "price", ">"},
		{"price[lte]", "price", "<="},
		{"price[lt]", "price", "<"},
		{"price[like]", "price[like]", "="}, // unsupported op is not a filter key
	}
	for _, tt := range tests {
		name, op := splitFilterKey(tt.key)
		assert.Equal(t, tt.wantName, name, tt.key)
		assert.Equal(t, tt.wantOp, op, tt.key)
	}
}
