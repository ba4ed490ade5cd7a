package handler

import (
	"net/http"

	"portfolio-admin/internal/platform/httpx"
)

const minPasswordLength = 8

// PasswordVerifier checks the operator's current credentials.
type PasswordVerifier interface {
	Verify(username, password string) error
}

// PasswordHasher produces the stored form of a new password.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
}

// Password serves POST /admin/api/password. Credentials come from configuration, so the handler
// returns the new hash for the operator to deploy as ADMIN_PASSWORD_HASH instead of storing it.
type Password struct {
	verifier PasswordVerifier
	hasher   PasswordHasher
	username string
}

// NewPassword returns a Password handler for the operator username.
func NewPassword(verifier PasswordVerifier, hasher PasswordHasher, username string) *Password {
	return &Password{verifier: verifier, hasher: hasher, username: username}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (p *Password) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.verifier.Verify(p.username, req.CurrentPassword) != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		httpx.WriteError(w, http.StatusBadRequest, "New passwords do not match")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		httpx.WriteError(w, http.StatusBadRequest, "New password must be at least 8 characters long")
		return
	}
	hash, err := p.hasher.Hash([]byte(req.NewPassword))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      "Set ADMIN_PASSWORD_HASH to the returned hash and restart to apply the new password",
		"passwordHash": hash,
	})
}
