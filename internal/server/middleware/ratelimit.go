package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"portfolio-admin/internal/platform/httpx"
	"portfolio-admin/internal/platform/ratelimit"
	"portfolio-admin/internal/telemetry/metrics"
)

// RateLimitRule limits requests per client IP within Window. Limit <= 0 disables the rule.
type RateLimitRule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

// RateLimitHooks are optional callbacks and collectors for rejected requests.
type RateLimitHooks struct {
	OnLimited func(ctx context.Context, scope string)
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// RateLimit rejects requests over rule with 429 and Retry-After. Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, rule RateLimitRule, hooks RateLimitHooks) func(http.Handler) http.Handler {
	log := hooks.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil || rule.Limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r.Context())
			if ip == "unknown" {
				ip = RequestIP(r, nil)
			}
			res, err := limiter.Allow(r.Context(), rule.Scope, ip, rule.Limit, rule.Window)
			if err != nil {
				log.Warn("rate limiter unavailable", "scope", rule.Scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if hooks.Metrics != nil {
				hooks.Metrics.RateLimited.WithLabelValues(rule.Scope).Inc()
			}
			if hooks.OnLimited != nil {
				hooks.OnLimited(r.Context(), rule.Scope)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter/time.Second)))
			httpx.WriteError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		})
	}
}
