// Package handler serves portfolio content over the public and admin HTTP APIs.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"portfolio-admin/internal/platform/httpx"
	"portfolio-admin/internal/portfolio/domain"
	"portfolio-admin/internal/portfolio/repository"
)

// Store is the CRUD surface a resource handler needs. *repository.Repository implements it.
type Store[T any] interface {
	List(ctx context.Context, visibleOnly bool) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, v *T) (*T, error)
	Update(ctx context.Context, id string, v *T) (*T, error)
	Delete(ctx context.Context, id string) error
	ToggleVisibility(ctx context.Context, id string) (*T, error)
	Count(ctx context.Context) (repository.Counts, error)
}

// FeaturedStore is implemented by stores whose rows can be featured.
type FeaturedStore[T any] interface {
	ListFeatured(ctx context.Context, limit int) ([]T, error)
	ToggleFeatured(ctx context.Context, id string) (*T, error)
}

// validatable constrains PT to a pointer to T with a Validate method.
type validatable[T any] interface {
	*T
	Validate() error
}

// ResourceOptions adjusts a resource handler.
type ResourceOptions struct {
	// ConfirmDelete requires confirm=DELETE (query or JSON body) on delete.
	ConfirmDelete bool
}

// Resource serves one content entity.
type Resource[T any, PT validatable[T]] struct {
	store    Store[T]
	featured FeaturedStore[T]
	opts     ResourceOptions
	log      *slog.Logger
}

// NewResource returns a handler for store. If store also implements FeaturedStore, the featured
// routes are enabled.
func NewResource[T any, PT validatable[T]](store Store[T], opts ResourceOptions, log *slog.Logger) *Resource[T, PT] {
	if log == nil {
		log = slog.Default()
	}
	h := &Resource[T, PT]{store: store, opts: opts, log: log}
	if f, ok := store.(FeaturedStore[T]); ok {
		h.featured = f
	}
	return h
}

// PublicRoutes registers read-only routes over visible rows.
func (h *Resource[T, PT]) PublicRoutes(r chi.Router) {
	r.Get("/", h.listPublic)
}

// AdminRoutes registers the full CRUD surface.
func (h *Resource[T, PT]) AdminRoutes(r chi.Router) {
	r.Get("/", h.listAll)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/toggle-visibility", h.toggleVisibility)
	if h.featured != nil {
		r.Post("/{id}/toggle-featured", h.toggleFeatured)
	}
}

func (h *Resource[T, PT]) listPublic(w http.ResponseWriter, r *http.Request) {
	if h.featured != nil && r.URL.Query().Get("featured") == "true" {
		items, err := h.featured.ListFeatured(r.Context(), domain.FeaturedLimit)
		h.respond(w, http.StatusOK, items, err)
		return
	}
	items, err := h.store.List(r.Context(), true)
	h.respond(w, http.StatusOK, items, err)
}

func (h *Resource[T, PT]) listAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context(), false)
	h.respond(w, http.StatusOK, items, err)
}

func (h *Resource[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.store.Get(r.Context(), id)
	h.respond(w, http.StatusOK, item, err)
}

func (h *Resource[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	var v T
	if !decodeValid[T, PT](w, r, &v) {
		return
	}
	item, err := h.store.Create(r.Context(), &v)
	h.respond(w, http.StatusCreated, item, err)
}

func (h *Resource[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var v T
	if !decodeValid[T, PT](w, r, &v) {
		return
	}
	item, err := h.store.Update(r.Context(), id, &v)
	h.respond(w, http.StatusOK, item, err)
}

type deleteRequest struct {
	ConfirmText string `json:"confirmText"`
}

func (h *Resource[T, PT]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.opts.ConfirmDelete {
		confirm := r.URL.Query().Get("confirm")
		if confirm == "" {
			var req deleteRequest
			_ = httpx.DecodeJSON(r, &req)
			confirm = req.ConfirmText
		}
		if confirm != "DELETE" {
			httpx.WriteError(w, http.StatusBadRequest, "Please type DELETE to confirm deletion")
			return
		}
	}
	err := h.store.Delete(r.Context(), id)
	h.respond(w, http.StatusOK, map[string]bool{"success": true}, err)
}

func (h *Resource[T, PT]) toggleVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.store.ToggleVisibility(r.Context(), id)
	h.respond(w, http.StatusOK, item, err)
}

func (h *Resource[T, PT]) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.featured.ToggleFeatured(r.Context(), id)
	h.respond(w, http.StatusOK, item, err)
}

// respond writes data, or maps err: not found -> 404, anything else -> 500 with the store's message.
func (h *Resource[T, PT]) respond(w http.ResponseWriter, status int, data any, err error) {
	switch {
	case err == nil:
		httpx.WriteJSON(w, status, data)
	case errors.Is(err, repository.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	default:
		h.log.Error("portfolio store error", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return "", false
	}
	return id, true
}

func decodeValid[T any, PT validatable[T]](w http.ResponseWriter, r *http.Request, v *T) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := PT(v).Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
