package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gotours/tour-booking-api/internal/apperr"
	"github.com/gotours/tour-booking-api/internal/repository"
)

// The factory instantiates the five generic resource operations over a
// repository.Store.  Each resource router binds them once per entity and
// decorates them with hooks (owner injection on create, nested-route
// scoping on reads, relation expansion on single fetches).

// Hook mutates a bound record before validation and persistence, e.g.
// filling the owning user from the request identity.
type Hook[T any] func(c echo.Context, rec *T) error

// Expand loads a named relation onto a fetched record.
type Expand[T any] func(ctx context.Context, rec *T) error

// ScopeFunc derives the ambient collection filter from the request, e.g.
// the tour named in a nested route.
type ScopeFunc func(c echo.Context) repository.Scope

// Validator is implemented by every entity model; the create handler runs
// it before persistence so validation stays visible at the call site.
type Validator interface{ Validate() error }

// CreateOne binds, runs hooks and validation, persists and answers 201
// with the stored record.
func CreateOne[T any](store repository.Store[T], resource string, hooks ...Hook[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		var rec T
		if err := c.Bind(&rec); err != nil {
			return apperr.BadRequest("Invalid request body")
		}
		for _, h := range hooks {
			if err := h(c, &rec); err != nil {
				return err
			}
		}
		if v, ok := any(&rec).(Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
		ctx, cancel := timeoutCtx(c)
		defer cancel()
		if err := store.Insert(ctx, &rec); err != nil {
			return translateStoreErr(err, resource)
		}
		return respond(c, http.StatusCreated, rec)
	}
}

// GetOne fetches by identifier, expanding any named relations, answering
// 404 when no record matches.
func GetOne[T any](store repository.Store[T], resource string, expands ...Expand[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		ctx, cancel := timeoutCtx(c)
		defer cancel()
		rec, err := store.FindByID(ctx, id)
		if err != nil {
			return translateStoreErr(err, resource)
		}
		for _, e := range expands {
			if err := e(ctx, &rec); err != nil {
				return translateStoreErr(err, resource)
			}
		}
		return respond(c, http.StatusOK, rec)
	}
}

// GetAll lists records, composing the route's ambient scope with the
// client's filter/sort/projection/pagination query.
func GetAll[T any](store repository.Store[T], resource string, allowed map[string]string, scopeFn ScopeFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var scope repository.Scope
		if scopeFn != nil {
			scope = scopeFn(c)
		}
		q := repository.ParseQuery(c.QueryParams(), allowed)

		ctx, cancel := timeoutCtx(c)
		defer cancel()
		list, err := store.FindAll(ctx, scope, q)
		if err != nil {
			return translateStoreErr(err, resource)
		}
		return respondList(c, list)
	}
}

// UpdateOne applies a partial update by identifier and answers 200 with
// the post-update record, 404 when absent.  Credential fields never travel
// this path; password changes have their own operation.
func UpdateOne[T any](store repository.Store[T], resource string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		patch, err := bindPatch(c)
		if err != nil {
			return err
		}
		ctx, cancel := timeoutCtx(c)
		defer cancel()
		rec, err := store.Update(ctx, id, patch)
		if err != nil {
			return translateStoreErr(err, resource)
		}
		return respond(c, http.StatusOK, rec)
	}
}

// DeleteOne removes by identifier, answering 204 with an empty body, 404
// when absent.
func DeleteOne[T any](store repository.Store[T], resource string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		ctx, cancel := timeoutCtx(c)
		defer cancel()
		if err := store.Delete(ctx, id); err != nil {
			return translateStoreErr(err, resource)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// pathID parses the :id path parameter.  A non-numeric identifier is the
// malformed-identifier case and answers 400.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("Invalid ID: " + c.Param("id"))
	}
	return id, nil
}

// bindPatch reads the request body as a free-form patch map; the repository
// decides which fields are updatable.
func bindPatch(c echo.Context) (map[string]any, error) {
	patch := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
		return nil, apperr.BadRequest("Invalid request body")
	}
	return patch, nil
}

// translateStoreErr maps repository failures into the operational error
// taxonomy.
func translateStoreErr(err error, resource string) error {
	if errors.Is(err, repository.ErrEmailExists) {
		return apperr.Conflict("Email address already in use")
	}
	return apperr.FromDB(err, resource)
}
