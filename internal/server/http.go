// Package server assembles the HTTP router from the feature handlers.
package server

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"portfolio-admin/internal/audit"
	audithandler "portfolio-admin/internal/audit/handler"
	auditrepo "portfolio-admin/internal/audit/repository"
	healthhandler "portfolio-admin/internal/health/handler"
	identityhandler "portfolio-admin/internal/identity/handler"
	identityservice "portfolio-admin/internal/identity/service"
	"portfolio-admin/internal/platform/httpx"
	"portfolio-admin/internal/platform/ratelimit"
	portfoliohandler "portfolio-admin/internal/portfolio/handler"
	"portfolio-admin/internal/server/middleware"
	"portfolio-admin/internal/session"
	"portfolio-admin/internal/telemetry"
	"portfolio-admin/internal/telemetry/metrics"
)

// Deps holds the services and stores the router is built from.
type Deps struct {
	// Sessions reads and writes the cookie-backed session state. Required.
	Sessions *session.Store
	// Auth is the sign-in state machine. Required.
	Auth *identityservice.AuthService
	// Password serves the change-password action. If nil, the route is not registered.
	Password *identityhandler.Password
	// Content serves the portfolio APIs. If nil, only the auth surface and a bare dashboard are served.
	Content *portfoliohandler.Content
	// AuditRepo backs GET /admin/api/audit. If nil, the route is not registered.
	AuditRepo auditrepo.Repository
	// AuditLogger records admin API mutations. If nil, mutations are not audited.
	AuditLogger audit.AuditLogger
	// Actor names the operator in audit entries.
	Actor string
	// Health serves /health and /ready. If nil, an empty checker is used.
	Health *healthhandler.Handler
	// Metrics records Prometheus metrics and serves /metrics. May be nil.
	Metrics *metrics.Metrics
	// Emitter receives http_request telemetry events. May be nil.
	Emitter telemetry.EventEmitter
	// Limiter backs the sign-in and verify rate limits. If nil, no limits apply.
	Limiter     ratelimit.Limiter
	SignInLimit middleware.RateLimitRule
	VerifyLimit middleware.RateLimitRule
	// DevOTP serves GET /dev/otp. Set only when dev OTP mode is on outside production.
	DevOTP http.Handler
	// TrustedProxies may set the client IP through forwarding headers. Empty trusts none.
	TrustedProxies []netip.Prefix
	// AllowedOrigins enables CORS for the public API when non-empty.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// telemetrySkip are health and metrics paths that would only add noise to the event stream.
var telemetrySkip = map[string]bool{"/health": true, "/ready": true, "/metrics": true}

// NewRouter returns the full HTTP handler. The route guard runs on every request before routing.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	health := deps.Health
	if health == nil {
		health = healthhandler.New()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestContext(deps.TrustedProxies))
	r.Use(chimw.Recoverer)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.Telemetry(deps.Emitter, telemetrySkip))
	r.Use(middleware.Guard(deps.Sessions, deps.Metrics))

	r.Get("/health", health.Live)
	r.Get("/ready", health.Ready)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	if deps.DevOTP != nil {
		r.Method(http.MethodGet, "/dev/otp", deps.DevOTP)
	}

	hooks := middleware.RateLimitHooks{OnLimited: deps.Auth.RateLimited, Metrics: deps.Metrics, Logger: log}
	identityhandler.New(deps.Auth, deps.Sessions, log).Mount(r,
		middleware.RateLimit(deps.Limiter, deps.SignInLimit, hooks),
		middleware.RateLimit(deps.Limiter, deps.VerifyLimit, hooks),
	)

	if deps.Content != nil {
		r.Get(identityhandler.AdminHome, deps.Content.Dashboard)
		r.Route("/api", deps.Content.PublicRoutes)
	} else {
		r.Get(identityhandler.AdminHome, func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
		})
	}
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.AdminAudit(deps.AuditLogger, deps.Actor))
		if deps.Content != nil {
			deps.Content.AdminRoutes(r)
		}
		if deps.AuditRepo != nil {
			r.Get("/audit", audithandler.New(deps.AuditRepo).List)
		}
		if deps.Password != nil {
			r.Method(http.MethodPost, "/password", deps.Password)
		}
	})
	return r
}
