// Package handler exposes the admin sign-in flow over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"portfolio-admin/internal/identity/service"
	"portfolio-admin/internal/platform/httpx"
	"portfolio-admin/internal/session"
	sessiondomain "portfolio-admin/internal/session/domain"
)

const (
	// LoginPath is where unauthenticated admin requests and sign-outs land.
	LoginPath = "/auth/login"
	// VerifyPath is the second step of the sign-in flow.
	VerifyPath = "/auth/verify-otp"
	// AdminHome is where an authenticated operator is sent from the auth pages.
	AdminHome = "/admin"
)

const (
	msgCredentialsRequired = "Username and password are required"
	msgOTPRequired         = "OTP is required"
	msgInvalidCredentials  = "Invalid credentials"
	msgOTPExpired          = "OTP has expired. Please login again."
	msgInvalidOTP          = "Invalid OTP. Please try again."
	msgTooManyAttempts     = "Too many invalid attempts. Please login again."
	msgInternal            = "Internal server error"
)

// AuthFlow is the sign-in state machine used by the handler.
type AuthFlow interface {
	SignIn(ctx context.Context, st *sessiondomain.State, username, password string) (*service.SignInResult, error)
	VerifyOTP(ctx context.Context, st *sessiondomain.State, code string) error
	SignOut(ctx context.Context, st *sessiondomain.State)
}

// Handler serves the sign-in endpoints and the auth step pages.
type Handler struct {
	auth     AuthFlow
	sessions *session.Store
	log      *slog.Logger
	now      func() time.Time
}

// New returns a Handler. log may be nil.
func New(auth AuthFlow, sessions *session.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{auth: auth, sessions: sessions, log: log, now: time.Now}
}

// Mount registers the action endpoints and the auth pages on r.
// signInLimit and verifyLimit wrap POST /signIn and POST /verifyOtp; nil means unlimited.
func (h *Handler) Mount(r chi.Router, signInLimit, verifyLimit func(http.Handler) http.Handler) {
	with(r, signInLimit).Post("/signIn", h.SignIn)
	with(r, verifyLimit).Post("/verifyOtp", h.VerifyOTP)
	r.Post("/signOut", h.SignOut)
	r.Get(LoginPath, h.LoginPage)
	r.Get(VerifyPath, h.VerifyPage)
}

func with(r chi.Router, mw func(http.Handler) http.Handler) chi.Router {
	if mw == nil {
		return r
	}
	return r.With(mw)
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyRequest struct {
	OTP string `json:"otp"`
}

// SignIn handles POST /signIn with {username, password}.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req, func() {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}) {
		return
	}

	st := h.sessions.Load(r)
	_, err := h.auth.SignIn(r.Context(), st, req.Username, req.Password)
	var delivery *service.EmailDeliveryError
	switch {
	case err == nil:
	case errors.As(err, &delivery):
		// The new challenge is kept so the operator can retry by signing in again.
		h.save(w, st)
		httpx.WriteError(w, http.StatusBadGateway, "Failed to send OTP email: "+delivery.Err.Error())
		return
	case errors.Is(err, service.ErrMissingField):
		httpx.WriteError(w, http.StatusBadRequest, msgCredentialsRequired)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	default:
		h.log.Error("signIn failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	if !h.save(w, st) {
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true, "requiresOTP": true})
}

// VerifyOTP handles POST /verifyOtp with {otp}.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.decode(w, r, &req, func() { req.OTP = r.PostFormValue("otp") }) {
		return
	}
	req.OTP = strings.TrimSpace(req.OTP)

	st := h.sessions.Load(r)
	err := h.auth.VerifyOTP(r.Context(), st, req.OTP)
	if errors.Is(err, service.ErrMissingField) {
		httpx.WriteError(w, http.StatusBadRequest, msgOTPRequired)
		return
	}
	// Attempt counts and removed challenges must reach the client even on failure.
	if !h.save(w, st) {
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, service.ErrOTPExpiredOrMissing), errors.Is(err, service.ErrOTPExpired):
		httpx.WriteError(w, http.StatusBadRequest, msgOTPExpired)
	case errors.Is(err, service.ErrOTPAttemptsExceeded):
		httpx.WriteError(w, http.StatusBadRequest, msgTooManyAttempts)
	case errors.Is(err, service.ErrInvalidOTP):
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidOTP)
	default:
		h.log.Error("verifyOtp failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
	}
}

// SignOut handles POST /signOut: clears every session cookie and redirects to the login page.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	h.auth.SignOut(r.Context(), st)
	h.sessions.Clear(w)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// LoginPage describes the first sign-in step.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"step":   "credentials",
		"action": "/signIn",
		"fields": []string{"username", "password"},
		"next":   VerifyPath,
	})
}

// VerifyPage describes the OTP step and whether a code is currently pending.
func (h *Handler) VerifyPage(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	body := map[string]any{
		"step":    "otp",
		"action":  "/verifyOtp",
		"fields":  []string{"otp"},
		"pending": false,
	}
	if st.Pending != nil && !st.Pending.Expired(h.now()) {
		body["pending"] = true
		body["expiresAt"] = st.Pending.ExpiresAt
	}
	httpx.WriteJSON(w, http.StatusOK, body)
}

// decode reads a JSON body, or falls back to form values for form posts.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, fromForm func()) bool {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		fromForm()
		return true
	}
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) save(w http.ResponseWriter, st *sessiondomain.State) bool {
	if err := h.sessions.Save(w, st); err != nil {
		h.log.Error("session save failed", "err", err)
		return false
	}
	return true
}
