package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio-admin/internal/devotp"
	devotphandler "portfolio-admin/internal/devotp/handler"
	identityservice "portfolio-admin/internal/identity/service"
	"portfolio-admin/internal/platform/ratelimit"
	"portfolio-admin/internal/security"
	"portfolio-admin/internal/server/middleware"
	"portfolio-admin/internal/session"
	"portfolio-admin/internal/telemetry/metrics"
)

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) LogEvent(ctx context.Context, actor, action, resource, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.50:4000"
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}
	return rec
}

type testServer struct {
	handler http.Handler
	otps    *devotp.MemoryStore
	audit   *recordingAudit
}

func newTestServer(t *testing.T, signInLimit int) *testServer {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("Pratik.....1"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	verifier := security.NewCredentialVerifier(security.AdminCredentials{
		Username: "Pratik556", PasswordHash: hash, NotificationAddress: "operator@example.com",
	}, hasher)
	otps := devotp.NewMemoryStore()
	audit := &recordingAudit{}
	limiter := ratelimit.NewMemoryLimiter()
	auth := identityservice.NewAuthService(verifier, devotp.NewNotifier(otps, 10*time.Minute), audit, identityservice.Config{
		OTPKey: []byte(strings.Repeat("k", 32)), MaxAttempts: 5, Attempts: limiter, Actor: "Pratik556",
	})
	sessions := session.NewStore(session.NewSecureCookieCodec([]byte(strings.Repeat("s", 32)), nil, time.Hour), session.Options{})

	h := NewRouter(Deps{
		Sessions:    sessions,
		Auth:        auth,
		AuditLogger: audit,
		Actor:       "Pratik556",
		Metrics:     metrics.New(),
		Limiter:     limiter,
		SignInLimit: middleware.RateLimitRule{Scope: "signin", Limit: signInLimit, Window: time.Minute},
		VerifyLimit: middleware.RateLimitRule{Scope: "verify", Limit: 10, Window: time.Minute},
		DevOTP:      devotphandler.New(otps, "operator@example.com"),
	})
	return &testServer{handler: h, otps: otps, audit: audit}
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, handler: s.handler, cookies: map[string]*http.Cookie{}}
}

func TestRouter_TwoFactorFlow(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.client(t)

	rec := c.do(http.MethodGet, "/admin", "")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("/admin anonymous: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := c.do(http.MethodGet, "/auth/login", ""); rec.Code != http.StatusOK {
		t.Fatalf("/auth/login anonymous: %d", rec.Code)
	}

	if rec := c.do(http.MethodPost, "/signIn", `{"username":"Pratik556","password":"Pratik.....1"}`); rec.Code != http.StatusOK {
		t.Fatalf("signIn: %d %s", rec.Code, rec.Body.String())
	}
	if rec := c.do(http.MethodGet, "/admin", ""); rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("/admin with pending OTP: %d, want redirect", rec.Code)
	}

	code, ok := srv.otps.Get(context.Background(), "operator@example.com")
	if !ok {
		t.Fatal("dev store has no code")
	}
	rec = c.do(http.MethodGet, "/dev/otp", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), code) {
		t.Fatalf("/dev/otp: %d %s", rec.Code, rec.Body.String())
	}

	if rec := c.do(http.MethodPost, "/verifyOtp", `{"otp":"`+code+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("verifyOtp: %d %s", rec.Code, rec.Body.String())
	}
	if rec := c.do(http.MethodGet, "/admin", ""); rec.Code != http.StatusOK {
		t.Fatalf("/admin authenticated: %d", rec.Code)
	}
	rec = c.do(http.MethodGet, "/auth/login", "")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("/auth/login authenticated: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = c.do(http.MethodPost, "/signOut", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("signOut: %d", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/admin", ""); rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("/admin after signOut: %d, want redirect", rec.Code)
	}
}

func TestRouter_AdminAPIGuarded(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.client(t)
	rec := c.do(http.MethodPost, "/admin/api/projects", `{"title":"x"}`)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("unauthenticated admin API: %d", rec.Code)
	}
	for _, a := range srv.audit.actions {
		if a == "create" {
			t.Error("blocked request must not be audited as a mutation")
		}
	}
}

func TestRouter_ImageSuffixedAdminPathsGuarded(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.client(t)
	for _, path := range []string{"/admin/api/audit.png", "/admin/dashboard.png"} {
		rec := c.do(http.MethodGet, path, "")
		if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/auth/login" {
			t.Errorf("GET %s anonymous: %d %q, want 307 to /auth/login", path, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestRouter_SignInRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	c := srv.client(t)
	for i := 0; i < 2; i++ {
		if rec := c.do(http.MethodPost, "/signIn", `{"username":"x","password":"y"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, rec.Code)
		}
	}
	rec := c.do(http.MethodPost, "/signIn", `{"username":"Pratik556","password":"Pratik.....1"}`)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third attempt: %d Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	found := false
	for _, a := range srv.audit.actions {
		found = found || a == "rate_limited"
	}
	if !found {
		t.Errorf("audit actions = %v, want rate_limited", srv.audit.actions)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.client(t)
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		if rec := c.do(http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s: %d", path, rec.Code)
		}
	}
}

func TestRouter_ReplayedPendingCookieCannotResetAttempts(t *testing.T) {
	srv := newTestServer(t, 10)
	c := srv.client(t)
	if rec := c.do(http.MethodPost, "/signIn", `{"username":"Pratik556","password":"Pratik.....1"}`); rec.Code != http.StatusOK {
		t.Fatalf("signIn: %d %s", rec.Code, rec.Body.String())
	}
	code, ok := srv.otps.Get(context.Background(), "operator@example.com")
	if !ok {
		t.Fatal("dev store has no code")
	}
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	saved := c.cookies["pending_otp"]
	if saved == nil {
		t.Fatal("no pending_otp cookie")
	}

	verify := func(remote, forwarded, otp string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/verifyOtp", strings.NewReader(`{"otp":"`+otp+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		req.RemoteAddr = remote
		req.AddCookie(saved)
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= 10; i++ {
		rec := verify("192.0.2.50:4000", fmt.Sprintf("198.51.100.%d", i), wrong)
		want := "Invalid OTP. Please try again."
		if i >= 5 {
			want = "Too many invalid attempts. Please login again."
		}
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("guess %d: %d %s, want 400 %q", i, rec.Code, rec.Body.String(), want)
		}
	}

	rec := verify("192.0.2.50:4000", "198.51.100.200", wrong)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("guess past the per-IP limit with a new forwarded header: %d, want 429", rec.Code)
	}

	rec = verify("192.0.2.51:4000", "", code)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Too many invalid attempts") {
		t.Fatalf("correct code on a replayed capped cookie: %d %s", rec.Code, rec.Body.String())
	}
}
