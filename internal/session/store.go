// Package session keeps the admin auth state in signed, name-scoped cookies.
package session

import (
	"net/http"
	"time"

	mfadomain "portfolio-admin/internal/mfa/domain"
	"portfolio-admin/internal/session/domain"
)

// Options controls cookie attributes and lifetimes.
type Options struct {
	Secure     bool
	SessionTTL time.Duration
	OTPTTL     time.Duration
}

// Store reads and writes domain.State from request and response cookies.
// It holds no per-session memory; the client round-trips the state.
type Store struct {
	codec Codec
	opts  Options
	now   func() time.Time
}

// NewStore returns a Store using codec for every cookie value.
func NewStore(codec Codec, opts Options) *Store {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	return &Store{codec: codec, opts: opts, now: time.Now}
}

// Load decodes the session cookies on r. Missing, tampered, or foreign values read as absent.
func (s *Store) Load(r *http.Request) *domain.State {
	st := &domain.State{}

	var admin string
	if s.decode(r, domain.CookieAdminSession, &admin) {
		st.AdminSession = admin == domain.AdminSessionValue
	}
	var verified string
	if s.decode(r, domain.CookieOTPVerified, &verified) {
		st.OTPVerified = verified == "true"
	}
	var pending mfadomain.Challenge
	if s.decode(r, domain.CookiePendingOTP, &pending) && pending.CodeHash != "" {
		st.Pending = &pending
	}
	return st
}

func (s *Store) decode(r *http.Request, name string, dst any) bool {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return false
	}
	return s.codec.Decode(name, c.Value, dst) == nil
}

// Save writes cookies for every part of st, deleting the ones that are unset.
func (s *Store) Save(w http.ResponseWriter, st *domain.State) error {
	if st.AdminSession {
		if err := s.set(w, domain.CookieAdminSession, domain.AdminSessionValue, s.opts.SessionTTL); err != nil {
			return err
		}
	} else {
		s.clear(w, domain.CookieAdminSession)
	}

	switch {
	case st.OTPVerified:
		if err := s.set(w, domain.CookieOTPVerified, "true", s.opts.SessionTTL); err != nil {
			return err
		}
	case st.Pending != nil:
		if err := s.set(w, domain.CookieOTPVerified, "false", s.opts.OTPTTL); err != nil {
			return err
		}
	default:
		s.clear(w, domain.CookieOTPVerified)
	}

	if st.Pending != nil {
		ttl := st.Pending.Remaining(s.now())
		if ttl <= 0 || ttl > s.opts.OTPTTL {
			ttl = s.opts.OTPTTL
		}
		if err := s.set(w, domain.CookiePendingOTP, st.Pending, ttl); err != nil {
			return err
		}
	} else {
		s.clear(w, domain.CookiePendingOTP)
	}
	return nil
}

// Clear deletes all session cookies.
func (s *Store) Clear(w http.ResponseWriter) {
	s.clear(w, domain.CookieAdminSession)
	s.clear(w, domain.CookieOTPVerified)
	s.clear(w, domain.CookiePendingOTP)
}

func (s *Store) set(w http.ResponseWriter, name string, value any, ttl time.Duration) error {
	encoded, err := s.codec.Encode(name, value, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(name, encoded, int(ttl.Round(time.Second)/time.Second)))
	return nil
}

func (s *Store) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, s.cookie(name, "", -1))
}

func (s *Store) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
