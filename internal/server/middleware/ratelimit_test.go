package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"portfolio-admin/internal/platform/ratelimit"
	"portfolio-admin/internal/telemetry/metrics"
)

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	m := metrics.New()
	var limitedScope string
	h := RequestContext(nil)(RateLimit(ratelimit.NewMemoryLimiter(), RateLimitRule{Scope: "signin", Limit: 2, Window: time.Minute}, RateLimitHooks{
		Metrics:   m,
		OnLimited: func(ctx context.Context, scope string) { limitedScope = scope },
	})(okHandler()))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signIn", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	for i := 0; i < 2; i++ {
		if rec := send("192.0.2.1:1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := send("192.0.2.1:2")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra == "" || ra == "0" {
		t.Errorf("Retry-After = %q", ra)
	}
	if limitedScope != "signin" {
		t.Errorf("OnLimited scope = %q", limitedScope)
	}
	if got := testutil.ToFloat64(m.RateLimited.WithLabelValues("signin")); got != 1 {
		t.Errorf("rate limited counter = %v", got)
	}
	if rec := send("192.0.2.2:1"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := RateLimit(failingLimiter{}, RateLimitRule{Scope: "verify", Limit: 1, Window: time.Minute}, RateLimitHooks{})(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verifyOtp", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 when limiter errors", rec.Code)
		}
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(ratelimit.NewMemoryLimiter(), RateLimitRule{Scope: "verify"}, RateLimitHooks{})(okHandler())
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verifyOtp", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
}
