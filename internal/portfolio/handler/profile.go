package handler

import (
	"context"
	"errors"
	"net/http"

	"portfolio-admin/internal/platform/httpx"
	"portfolio-admin/internal/portfolio/domain"
	"portfolio-admin/internal/portfolio/repository"
)

// ProfileStore reads and writes sections by name. *repository.Repository[domain.Section] implements it.
type ProfileStore interface {
	GetByKey(ctx context.Context, key string) (*domain.Section, error)
	UpsertByKey(ctx context.Context, v *domain.Section) (*domain.Section, error)
}

// GetProfile returns the profile image URL, or null when none is set.
func (c *Content) GetProfile(w http.ResponseWriter, r *http.Request) {
	section, err := c.src.Profile.GetByKey(r.Context(), domain.ProfileSectionName)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.storeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, domain.ProfileFromSection(section))
}

// SaveProfile stores the profile image URL in the profile section, creating it if needed.
func (c *Content) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.ImageURL == nil {
		httpx.WriteError(w, http.StatusBadRequest, "profile_image_url is required")
		return
	}
	if _, err := c.src.Profile.UpsertByKey(r.Context(), p.Section()); err != nil {
		c.storeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
