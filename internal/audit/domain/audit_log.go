package domain

import "time"

// Auth outcome actions recorded by the sign-in flow.
const (
	ActionSignInFailure       = "signin_failure"
	ActionOTPIssued           = "otp_issued"
	ActionOTPDeliveryFailed   = "otp_delivery_failed"
	ActionOTPVerified         = "otp_verified"
	ActionOTPRejected         = "otp_rejected"
	ActionOTPExpired          = "otp_expired"
	ActionOTPAttemptsExceeded = "otp_attempts_exceeded"
	ActionSignOut             = "signout"
	ActionRateLimited         = "rate_limited"
)

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"` // JSON
	CreatedAt time.Time `json:"created_at"`
}
