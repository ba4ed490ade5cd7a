package domain

import "time"

// Challenge is the pending OTP for a session (carried in the pending_otp cookie).
// At most one exists per session; issuing a new one replaces the previous.
type Challenge struct {
	ID        string    `json:"id,omitempty"`
	CodeHash  string    `json:"h"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	Attempts  int       `json:"n,omitempty"`
}

// Expired reports whether now is past ExpiresAt. A challenge is still valid at exactly ExpiresAt.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Remaining returns the time left before expiry, or zero once expired.
func (c *Challenge) Remaining(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Key identifies the challenge for server-side attempt counting.
func (c *Challenge) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.CodeHash
}
