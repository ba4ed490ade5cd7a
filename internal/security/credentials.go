package security

import (
	"crypto/subtle"
	"errors"
)

var (
	// ErrMissingField is returned when the username or password is empty.
	ErrMissingField = errors.New("username and password are required")
	// ErrInvalidCredentials is returned for any username or password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdminCredentials is the single admin identity, loaded from configuration.
// NotificationAddress receives OTP emails.
type AdminCredentials struct {
	Username            string
	PasswordHash        string
	NotificationAddress string
}

// CredentialVerifier checks submitted credentials against AdminCredentials.
type CredentialVerifier struct {
	creds  AdminCredentials
	hasher *Hasher
}

// NewCredentialVerifier returns a verifier for creds.
func NewCredentialVerifier(creds AdminCredentials, hasher *Hasher) *CredentialVerifier {
	if hasher == nil {
		hasher = NewHasher(0)
	}
	return &CredentialVerifier{creds: creds, hasher: hasher}
}

// Verify returns nil when username matches exactly and password matches the stored hash.
// The bcrypt comparison runs even on a username mismatch so both failures take similar time.
func (v *CredentialVerifier) Verify(username, password string) error {
	if username == "" || password == "" {
		return ErrMissingField
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.creds.Username)) == 1
	passErr := v.hasher.Compare(v.creds.PasswordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// NotificationAddress returns the address OTP codes are sent to.
func (v *CredentialVerifier) NotificationAddress() string {
	return v.creds.NotificationAddress
}
