package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"portfolio-admin/internal/audit"
	auditdomain "portfolio-admin/internal/audit/domain"
	"portfolio-admin/internal/mfa"
	mfadomain "portfolio-admin/internal/mfa/domain"
	"portfolio-admin/internal/mfa/email"
	"portfolio-admin/internal/platform/ratelimit"
	sessiondomain "portfolio-admin/internal/session/domain"
)

const (
	instrumentationName = "portfolio-admin/identity"

	resourceSession = "admin_session"
	resourcePending = "pending_otp"

	scopeOTPAttempts = "otp_attempts"
)

// CredentialVerifier is the minimal credential check needed by the auth service.
type CredentialVerifier interface {
	Verify(username, password string) error
	NotificationAddress() string
}

// Config holds the auth service settings.
type Config struct {
	// OTPKey keys the HMAC stored in place of the code.
	OTPKey []byte
	// OTPTTL is how long an issued code stays valid. Defaults to 10 minutes.
	OTPTTL time.Duration
	// MaxAttempts caps wrong codes per challenge; 0 disables the cap.
	MaxAttempts int
	// Attempts counts submissions per challenge on the server, so replaying an older
	// pending_otp cookie does not reset the cap. If nil only the cookie counter applies.
	Attempts ratelimit.Limiter
	// Actor names the operator in audit entries when no username was submitted.
	Actor string

	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger
}

// SignInResult is returned by a successful SignIn.
type SignInResult struct {
	RequiresOTP bool
	MessageID   string
	ExpiresAt   time.Time
}

// AuthService drives the two-step admin sign-in: credentials, then an emailed OTP.
// It mutates the session state passed in; persisting it is the caller's job.
type AuthService struct {
	verifier CredentialVerifier
	notifier email.Notifier
	audit    audit.AuditLogger
	cfg      Config

	tracer  trace.Tracer
	events  metric.Int64Counter
	log     *slog.Logger
	now     func() time.Time
	newCode func() (string, error)
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLogger may be nil.
func NewAuthService(verifier CredentialVerifier, notifier email.Notifier, auditLogger audit.AuditLogger, cfg Config) *AuthService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	s := &AuthService{
		verifier: verifier,
		notifier: notifier,
		audit:    auditLogger,
		cfg:      cfg,
		tracer:   cfg.Tracer,
		log:      cfg.Logger,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  mfa.GenerateOTP,
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	events, err := meter.Int64Counter("auth.events",
		metric.WithDescription("Admin sign-in flow outcomes by action."))
	if err != nil {
		s.log.Warn("auth: create counter", "err", err)
		events, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("auth.events")
	}
	s.events = events
	return s
}

// SignIn checks credentials and, on success, issues a fresh OTP into st and emails it.
// On ErrEmailDeliveryFailed the new challenge is already in st and must still be saved,
// so the operator can retry by signing in again.
func (s *AuthService) SignIn(ctx context.Context, st *sessiondomain.State, username, password string) (*SignInResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignIn")
	defer span.End()

	if err := s.verifier.Verify(username, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.record(ctx, username, auditdomain.ActionSignInFailure, resourceSession, map[string]any{"reason": "invalid_credentials"})
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := s.now()
	challenge := &mfadomain.Challenge{
		ID:        uuid.NewString(),
		CodeHash:  mfa.HashOTP(s.cfg.OTPKey, code),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}
	st.Issue(challenge)
	s.record(ctx, username, auditdomain.ActionOTPIssued, resourcePending, map[string]any{"expires_at": challenge.ExpiresAt})

	messageID, err := s.notifier.SendOTP(ctx, code, s.verifier.NotificationAddress())
	if err != nil {
		s.log.Error("auth: send otp", "err", err)
		s.record(ctx, username, auditdomain.ActionOTPDeliveryFailed, resourcePending, map[string]any{"error": err.Error()})
		span.SetStatus(codes.Error, "otp delivery failed")
		return nil, &EmailDeliveryError{Err: err}
	}
	span.SetAttributes(attribute.String("auth.message_id", messageID))
	return &SignInResult{RequiresOTP: true, MessageID: messageID, ExpiresAt: challenge.ExpiresAt}, nil
}

// VerifyOTP compares code with the pending challenge in st. On a match both session flags are
// raised and the challenge is consumed. An expired challenge is removed and reported as ErrOTPExpired.
// A wrong code keeps the challenge unless it was the last allowed attempt.
func (s *AuthService) VerifyOTP(ctx context.Context, st *sessiondomain.State, code string) error {
	ctx, span := s.tracer.Start(ctx, "auth.VerifyOTP")
	defer span.End()

	if code == "" {
		return ErrMissingField
	}
	pending := st.Pending
	if pending == nil {
		s.record(ctx, s.cfg.Actor, auditdomain.ActionOTPRejected, resourcePending, map[string]any{"reason": "missing"})
		span.SetStatus(codes.Error, ErrOTPExpiredOrMissing.Error())
		return ErrOTPExpiredOrMissing
	}
	if pending.Expired(s.now()) {
		st.Pending = nil
		s.record(ctx, s.cfg.Actor, auditdomain.ActionOTPExpired, resourcePending, nil)
		span.SetStatus(codes.Error, ErrOTPExpired.Error())
		return ErrOTPExpired
	}
	count, capped := s.countAttempt(ctx, pending)
	if capped {
		return s.attemptsExceeded(ctx, span, st, count)
	}
	if !mfa.ValidFormat(code) || !mfa.OTPEqual(s.cfg.OTPKey, code, pending.CodeHash) {
		pending.Attempts = max(pending.Attempts+1, count)
		if s.cfg.MaxAttempts > 0 && pending.Attempts >= s.cfg.MaxAttempts {
			return s.attemptsExceeded(ctx, span, st, pending.Attempts)
		}
		s.record(ctx, s.cfg.Actor, auditdomain.ActionOTPRejected, resourcePending, map[string]any{"reason": "mismatch", "attempts": pending.Attempts})
		span.SetStatus(codes.Error, ErrInvalidOTP.Error())
		return ErrInvalidOTP
	}

	st.Promote()
	s.record(ctx, s.cfg.Actor, auditdomain.ActionOTPVerified, resourceSession, map[string]any{"attempts": pending.Attempts + 1})
	return nil
}

// countAttempt records one submission against the challenge in the shared counter. capped is true
// once more than MaxAttempts submissions were seen, whatever the cookie claims. Counter errors
// fall back to the cookie count.
func (s *AuthService) countAttempt(ctx context.Context, c *mfadomain.Challenge) (count int, capped bool) {
	if s.cfg.MaxAttempts <= 0 || s.cfg.Attempts == nil {
		return 0, false
	}
	window := c.Remaining(s.now()) + time.Second
	res, err := s.cfg.Attempts.Allow(ctx, scopeOTPAttempts, c.Key(), s.cfg.MaxAttempts, window)
	if err != nil {
		s.log.Warn("auth: count otp attempt", "err", err)
		return 0, false
	}
	return res.Count, !res.Allowed
}

func (s *AuthService) attemptsExceeded(ctx context.Context, span trace.Span, st *sessiondomain.State, attempts int) error {
	st.Pending = nil
	s.record(ctx, s.cfg.Actor, auditdomain.ActionOTPAttemptsExceeded, resourcePending, map[string]any{"attempts": attempts})
	span.SetStatus(codes.Error, ErrOTPAttemptsExceeded.Error())
	return ErrOTPAttemptsExceeded
}

// SignOut clears both flags and any pending challenge. It always succeeds.
func (s *AuthService) SignOut(ctx context.Context, st *sessiondomain.State) {
	ctx, span := s.tracer.Start(ctx, "auth.SignOut")
	defer span.End()

	wasAuthenticated := st.Authenticated()
	st.Reset()
	s.record(ctx, s.cfg.Actor, auditdomain.ActionSignOut, resourceSession, map[string]any{"was_authenticated": wasAuthenticated})
}

// RateLimited records a request rejected by the rate limiter.
func (s *AuthService) RateLimited(ctx context.Context, route string) {
	s.record(ctx, s.cfg.Actor, auditdomain.ActionRateLimited, route, nil)
}

// record writes an audit entry and bumps the outcome counter. Never includes codes or passwords.
func (s *AuthService) record(ctx context.Context, actor, action, resource string, meta map[string]any) {
	if actor == "" {
		actor = s.cfg.Actor
	}
	var metadata string
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metadata = string(b)
		}
	}
	s.audit.LogEvent(ctx, actor, action, resource, metadata)
	s.events.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
	trace.SpanFromContext(ctx).AddEvent(action)
}
