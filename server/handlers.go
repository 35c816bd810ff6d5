package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/cactus-garden/garden"
	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/listing"
)

// withStaffClient runs fn with a garden client bound to the caller's session.
func (a *Admin) withStaffClient(w http.ResponseWriter, r *http.Request, fn func(c *garden.Client)) {
	ls, ok := loginSessionFrom(r.Context())
	if !ok {
		writeLoginRedirect(w)
		return
	}
	c, err := a.staffClient(ls)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	fn(c)
}

// fail writes err. An auth failure means the manager already dropped the session,
// so the cookie goes too.
func (a *Admin) fail(w http.ResponseWriter, r *http.Request, err error) {
	if garderrors.KindOf(err) == garderrors.KindAuth {
		a.clearSessionCookie(w, r)
	}
	writeError(w, r, err)
}

// listHandler fetches the whole collection, forwarding API filters, and pages it locally.
func listHandler[T any](a *Admin, list func(*garden.Client, context.Context, url.Values) ([]T, error), opts listing.Options[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.withStaffClient(w, r, func(c *garden.Client) {
			params := r.URL.Query()
			items, err := list(c, r.Context(), listing.Passthrough(params))
			if err != nil {
				a.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, listing.Apply(items, listing.ParseQuery(params), opts))
		})
	}
}

func itemHandler[T any](a *Admin, get func(*garden.Client, context.Context, string) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.withStaffClient(w, r, func(c *garden.Client) {
			item, err := get(c, r.Context(), r.PathValue("id"))
			if err != nil {
				a.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, item)
		})
	}
}

func createHandler[T any](a *Admin, create func(*garden.Client, context.Context, T) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		a.withStaffClient(w, r, func(c *garden.Client) {
			created, err := create(c, r.Context(), in)
			if err != nil {
				a.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		})
	}
}

func updateHandler[T any](a *Admin, update func(*garden.Client, context.Context, string, T) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		a.withStaffClient(w, r, func(c *garden.Client) {
			updated, err := update(c, r.Context(), r.PathValue("id"), in)
			if err != nil {
				a.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})
	}
}

func deleteHandler(a *Admin, del func(*garden.Client, context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.withStaffClient(w, r, func(c *garden.Client) {
			if err := del(c, r.Context(), r.PathValue("id")); err != nil {
				a.fail(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
