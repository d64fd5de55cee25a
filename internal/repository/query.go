package repository

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Reserved query-string keys that steer the query itself and never become
// column filters.
const (
	keyPage   = "page"
	keySort   = "sort"
	keyLimit  = "limit"
	keyFields = "fields"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// Query captures a parsed client request for a collection read: column
// filters, sort order, field projection and pagination.  A Query is built
// once from the URL query string and rendered into parameterized SQL by the
// repository that owns the table.
type Query struct {
	filters []filter
	sort    []sortKey
	fields  []string
	page    int
	limit   int
}

type filter struct {
	column string
	op     string // "=", ">=", ">", "<=", "<"
	value  string
}

type sortKey struct {
	column string
	desc   bool
}

var comparisonOps = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// ParseQuery translates raw query-string values into a Query.  The allowed
// map translates exposed field names to column names (e.g. "ratingsAverage"
// -> "ratings_average"); keys outside the map are silently dropped so a
// client can never filter, sort or project on internal columns.
//
// Filters accept either an exact match (price=500) or a bracketed
// comparison operator (price[gte]=500).  Sort is a comma list with a '-'
// prefix for descending.  Fields is a comma inclusion list.  Page and limit
// default to 1 and 100.
func ParseQuery(values url.Values, allowed map[string]string) Query {
	q := Query{page: defaultPage, limit: defaultLimit}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case keyPage, keySort, keyLimit, keyFields:
			continue
		}
		name, op := splitFilterKey(key)
		col, ok := allowed[name]
		if !ok {
			continue
		}
		q.filters = append(q.filters, filter{column: col, op: op, value: vals[0]})
	}
	// url.Values iteration order is random; keep the rendered SQL stable.
	sort.Slice(q.filters, func(i, j int) bool {
		if q.filters[i].column != q.filters[j].column {
			return q.filters[i].column < q.filters[j].column
		}
		return q.filters[i].op < q.filters[j].op
	})

	for _, part := range strings.Split(values.Get(keySort), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if col, ok := allowed[name]; ok {
			q.sort = append(q.sort, sortKey{column: col, desc: desc})
		}
	}

	for _, part := range strings.Split(values.Get(keyFields), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if col, ok := allowed[part]; ok {
			q.fields = append(q.fields, col)
		}
	}

	if n, err := strconv.Atoi(values.Get(keyPage)); err == nil && n > 0 {
		q.page = n
	}
	if n, err := strconv.Atoi(values.Get(keyLimit)); err == nil && n > 0 {
		q.limit = n
	}
	return q
}

// splitFilterKey breaks "price[gte]" into ("price", ">=").  A key without a
// recognized bracket suffix is an exact match.
func splitFilterKey(key string) (string, string) {
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		if op, ok := comparisonOps[key[open+1:len(key)-1]]; ok {
			return key[:open], op
		}
	}
	return key, "="
}

// Columns resolves the projection against the table's full public column
// list.  With no explicit projection every public column is selected;
// internal columns never appear in either list.  The id column is always
// included so records stay addressable.
func (q Query) Columns(all []string) []string {
	if len(q.fields) == 0 {
		return all
	}
	cols := make([]string, 0, len(q.fields)+1)
	if !contains(q.fields, "id") {
		cols = append(cols, "id")
	}
	return append(cols, q.fields...)
}

// Build renders the SELECT for table using the given full column list and
// ambient scope.  The scope is an equality filter composed with the parsed
// filters (e.g. restricting reviews to one tour, or users to active ones).
// The returned column slice tells the caller what to scan, in order.
//
// Sorting always ends with a unique id tiebreak so pagination never skips
// or duplicates rows when the requested sort is not unique.
func (q Query) Build(table string, all []string, scope Scope) (string, []any, []string) {
	// A zero Query (internal callers) paginates like an unqualified request.
	if q.page < 1 {
		q.page = defaultPage
	}
	if q.limit < 1 {
		q.limit = defaultLimit
	}
	cols := q.Columns(all)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)

	where, args := q.whereClause(scope)
	b.WriteString(where)

	b.WriteString(" ORDER BY ")
	for _, s := range q.sort {
		b.WriteString(s.column)
		if s.desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
		b.WriteString(", ")
	}
	b.WriteString("id ASC")

	b.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, q.limit, (q.page-1)*q.limit)

	return b.String(), args, cols
}

// whereClause renders scope plus filters as " WHERE ..." (or "" when both
// are empty) with positional args.
func (q Query) whereClause(scope Scope) (string, []any) {
	conds := make([]string, 0, len(scope)+len(q.filters))
	args := make([]any, 0, len(scope)+len(q.filters))

	for _, col := range scope.sortedKeys() {
		conds = append(conds, col+" = ?")
		args = append(args, scope[col])
	}
	for _, f := range q.filters {
		conds = append(conds, f.column+" "+f.op+" ?")
		args = append(args, f.value)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
