package repository

import (
	"context"
	"sort"
)

// Scope is an ambient equality filter applied to collection reads before the
// client's own filters: restricting reviews or bookings to one tour on
// nested routes, or users to active accounts.  Scopes are threaded in
// explicitly by every caller rather than hidden in the data layer.
type Scope map[string]any

// sortedKeys returns the scope columns in a fixed order so rendered SQL is
// deterministic.
func (s Scope) sortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store is the repository capability set the generic resource handlers are
// instantiated over.  Each entity's repository implements it with
// hand-written SQL; the handlers stay entity-agnostic.
type Store[T any] interface {
	// FindByID fetches one record, sql.ErrNoRows (possibly wrapped) when
	// absent.
	FindByID(ctx context.Context, id uint64) (T, error)

	// FindAll lists records matching the ambient scope composed with the
	// client query.  A page past the end yields an empty slice, not an
	// error.
	FindAll(ctx context.Context, scope Scope, q Query) ([]T, error)

	// Insert persists a new record and fills in its generated fields.
	Insert(ctx context.Context, rec *T) error

	// Update applies a partial patch of exposed field names to one record
	// and returns the post-update state, sql.ErrNoRows when absent.
	Update(ctx context.Context, id uint64, patch map[string]any) (T, error)

	// Delete removes one record, sql.ErrNoRows when absent.
	Delete(ctx context.Context, id uint64) error
}
