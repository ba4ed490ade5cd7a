// Package handler serves the audit trail to the admin dashboard.
package handler

import (
	"net/http"
	"strconv"

	"portfolio-admin/internal/audit/domain"
	auditrepo "portfolio-admin/internal/audit/repository"
	"portfolio-admin/internal/platform/httpx"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler lists audit log entries.
type Handler struct {
	repo auditrepo.Repository
}

// New returns a Handler reading from repo.
func New(repo auditrepo.Repository) *Handler {
	return &Handler{repo: repo}
}

type listResponse struct {
	Entries []*domain.AuditLog `json:"entries"`
	Limit   int32              `json:"limit"`
	Offset  int32              `json:"offset"`
}

// List handles GET /admin/api/audit?limit=&offset=. Limit defaults to 50 and is capped at 200.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseInt32(r.URL.Query().Get("limit"), defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset := max(parseInt32(r.URL.Query().Get("offset"), 0), 0)

	entries, err := h.repo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*domain.AuditLog{}
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse{Entries: entries, Limit: limit, Offset: offset})
}

func parseInt32(s string, fallback int32) int32 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}
