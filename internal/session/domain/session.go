package domain

import (
	mfadomain "portfolio-admin/internal/mfa/domain"
)

// Cookie names and on-wire values of the session state.
const (
	CookieAdminSession = "admin_session"
	CookieOTPVerified  = "otp_verified"
	CookiePendingOTP   = "pending_otp"

	AdminSessionValue = "authenticated"
)

// Phase is the position of a session in the sign-in state machine.
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseCredentialsOK
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseCredentialsOK:
		return "credentials_ok"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// State is the per-session auth state carried in cookies. The zero value is anonymous.
type State struct {
	Pending      *mfadomain.Challenge
	OTPVerified  bool
	AdminSession bool
}

// Authenticated reports whether both flags are set. Neither flag alone grants access.
func (s *State) Authenticated() bool {
	return s != nil && s.AdminSession && s.OTPVerified
}

// Phase derives the state machine position from the flags and pending challenge.
func (s *State) Phase() Phase {
	switch {
	case s.Authenticated():
		return PhaseAuthenticated
	case s != nil && s.Pending != nil:
		return PhaseCredentialsOK
	default:
		return PhaseAnonymous
	}
}

// Issue replaces any pending challenge with c and lowers both flags.
func (s *State) Issue(c *mfadomain.Challenge) {
	s.Pending = c
	s.AdminSession = false
	s.OTPVerified = false
}

// Promote raises both flags together and consumes the pending challenge.
func (s *State) Promote() {
	s.Pending = nil
	s.AdminSession = true
	s.OTPVerified = true
}

// Reset returns the state to anonymous.
func (s *State) Reset() {
	*s = State{}
}
