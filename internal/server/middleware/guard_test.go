package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	mfadomain "portfolio-admin/internal/mfa/domain"
	"portfolio-admin/internal/session"
	sessiondomain "portfolio-admin/internal/session/domain"
	"portfolio-admin/internal/telemetry/metrics"
)

func TestClassifyPath(t *testing.T) {
	testCases := map[string]Class{
		"/admin":               ClassAdmin,
		"/admin/":              ClassAdmin,
		"/admin/api/projects":  ClassAdmin,
		"/administrator":       ClassPublic,
		"/auth":                ClassAuth,
		"/auth/login":          ClassAuth,
		"/authors":             ClassPublic,
		"/":                    ClassPublic,
		"/signIn":              ClassPublic,
		"/api/projects":        ClassPublic,
		"/static/app.css":      ClassStatic,
		"/favicon.ico":         ClassStatic,
		"/images/me.webp":      ClassStatic,
		"/admin/logo.PNG":      ClassAdmin,
		"/admin/api/audit.png": ClassAdmin,
		"/admin/dashboard.svg": ClassAdmin,
		"/auth/logo.svg":       ClassAuth,
	}
	for p, want := range testCases {
		if got := ClassifyPath(p); got != want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestClassify_RuleTable(t *testing.T) {
	anon := &sessiondomain.State{}
	pending := &sessiondomain.State{Pending: &mfadomain.Challenge{CodeHash: "h"}}
	onlyAdmin := &sessiondomain.State{AdminSession: true}
	onlyOTP := &sessiondomain.State{OTPVerified: true}
	full := &sessiondomain.State{AdminSession: true, OTPVerified: true}

	testCases := []struct {
		name string
		path string
		st   *sessiondomain.State
		want Decision
	}{
		{"admin anonymous", "/admin", anon, Decision{RedirectTo: "/auth/login"}},
		{"admin nil state", "/admin", nil, Decision{RedirectTo: "/auth/login"}},
		{"admin pending otp", "/admin/api/projects", pending, Decision{RedirectTo: "/auth/login"}},
		{"admin image suffix anonymous", "/admin/dashboard.png", anon, Decision{RedirectTo: "/auth/login"}},
		{"admin session flag only", "/admin", onlyAdmin, Decision{RedirectTo: "/auth/login"}},
		{"admin otp flag only", "/admin", onlyOTP, Decision{RedirectTo: "/auth/login"}},
		{"admin authenticated", "/admin", full, Decision{Allow: true}},
		{"auth authenticated", "/auth/login", full, Decision{RedirectTo: "/admin"}},
		{"auth verify authenticated", "/auth/verify-otp", full, Decision{RedirectTo: "/admin"}},
		{"auth anonymous", "/auth/login", anon, Decision{Allow: true}},
		{"auth pending", "/auth/verify-otp", pending, Decision{Allow: true}},
		{"auth half flags", "/auth/login", onlyAdmin, Decision{Allow: true}},
		{"public anonymous", "/", anon, Decision{Allow: true}},
		{"public authenticated", "/api/skills", full, Decision{Allow: true}},
		{"signIn endpoint", "/signIn", anon, Decision{Allow: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.path, tc.st); got != tc.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tc.path, got, tc.want)
			}
		})
	}
}

func newTestSessions() *session.Store {
	codec := session.NewSecureCookieCodec([]byte(strings.Repeat("g", 32)), nil, time.Hour)
	return session.NewStore(codec, session.Options{})
}

// cookiesFor saves st through sessions and returns the resulting cookies.
func cookiesFor(t *testing.T, sessions *session.Store, st *sessiondomain.State) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sessions.Save(rec, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge > 0 {
			out = append(out, c)
		}
	}
	return out
}

func TestGuard(t *testing.T) {
	sessions := newTestSessions()
	m := metrics.New()
	var sawSession bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawSession = SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Guard(sessions, m)(next)

	serve := func(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("/admin", nil)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("/admin anonymous: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec.Body.Len() > 0 && strings.Contains(rec.Body.String(), "error") {
		t.Error("redirect should carry no error message")
	}

	full := cookiesFor(t, sessions, &sessiondomain.State{AdminSession: true, OTPVerified: true})
	rec = serve("/admin", full)
	if rec.Code != http.StatusOK || !sawSession {
		t.Fatalf("/admin authenticated: %d, session in context %v", rec.Code, sawSession)
	}

	rec = serve("/auth/login", full)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("/auth/login authenticated: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	forged := []*http.Cookie{
		{Name: sessiondomain.CookieAdminSession, Value: "authenticated"},
		{Name: sessiondomain.CookieOTPVerified, Value: "true"},
	}
	if rec = serve("/admin", forged); rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("forged plain cookies: status %d, want redirect", rec.Code)
	}

	sawSession = false
	if rec = serve("/static/site.css", nil); rec.Code != http.StatusOK || sawSession {
		t.Errorf("static asset: status %d, session loaded %v", rec.Code, sawSession)
	}

	if got := testutil.ToFloat64(m.GuardDecisions.WithLabelValues("admin", "redirect")); got != 2 {
		t.Errorf("admin redirect count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GuardDecisions.WithLabelValues("auth", "redirect")); got != 1 {
		t.Errorf("auth redirect count = %v, want 1", got)
	}
}

func TestGuard_NilMetrics(t *testing.T) {
	h := Guard(newTestSessions(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want 307", rec.Code)
	}
}
