// Package handler serves the dev-only OTP lookup endpoint (GET /dev/otp).
package handler

import (
	"net/http"

	"portfolio-admin/internal/devotp"
	"portfolio-admin/internal/platform/httpx"
)

const devOTPNote = "DEV MODE ONLY"

// Handler reads codes from the dev store. Only mounted when dev OTP is enabled and not production.
type Handler struct {
	store            devotp.Store
	defaultRecipient string
}

// New returns a handler that looks up codes in store. Requests without ?to= use defaultRecipient.
func New(store devotp.Store, defaultRecipient string) *Handler {
	return &Handler{store: store, defaultRecipient: defaultRecipient}
}

type otpResponse struct {
	OTP  string `json:"otp"`
	Note string `json:"note"`
}

// ServeHTTP returns the plain OTP for the recipient. 404 if missing or expired.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	if to == "" {
		to = h.defaultRecipient
	}
	if to == "" {
		httpx.WriteError(w, http.StatusBadRequest, "to is required")
		return
	}
	otp, ok := h.store.Get(r.Context(), to)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "OTP not found or expired")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, otpResponse{OTP: otp, Note: devOTPNote})
}
