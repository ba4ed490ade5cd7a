package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"portfolio-admin/internal/audit"
	auditrepo "portfolio-admin/internal/audit/repository"
	"portfolio-admin/internal/config"
	"portfolio-admin/internal/db"
	"portfolio-admin/internal/devotp"
	devotphandler "portfolio-admin/internal/devotp/handler"
	healthhandler "portfolio-admin/internal/health/handler"
	identityhandler "portfolio-admin/internal/identity/handler"
	identityservice "portfolio-admin/internal/identity/service"
	"portfolio-admin/internal/mfa/email"
	"portfolio-admin/internal/platform/ratelimit"
	portfoliohandler "portfolio-admin/internal/portfolio/handler"
	portfoliorepo "portfolio-admin/internal/portfolio/repository"
	"portfolio-admin/internal/security"
	"portfolio-admin/internal/server"
	"portfolio-admin/internal/server/middleware"
	"portfolio-admin/internal/session"
	"portfolio-admin/internal/telemetry/metrics"
	telemetryotel "portfolio-admin/internal/telemetry/otel"
)

// wire builds the router dependencies from cfg. cleanup closes the pool and Redis client.
func wire(ctx context.Context, cfg *config.Config, providers *telemetryotel.Providers, logger *slog.Logger) (server.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	trusted, err := cfg.TrustedProxies()
	if err != nil {
		return server.Deps{}, cleanup, err
	}

	codec, err := newCodec(cfg)
	if err != nil {
		return server.Deps{}, cleanup, err
	}
	sessions := session.NewStore(codec, session.Options{
		Secure:     cfg.SecureCookies(),
		SessionTTL: cfg.SessionTTL(),
		OTPTTL:     cfg.OTPTTL(),
	})

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return server.Deps{}, cleanup, err
		}
		closers = append(closers, pool.Close)
	} else {
		logger.Warn("DATABASE_URL not set: audit persistence and content APIs disabled")
	}

	var rdb *redis.Client
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return server.Deps{}, cleanup, fmt.Errorf("redis: parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		closers = append(closers, func() { _ = rdb.Close() })
		limiter = ratelimit.NewRedisLimiter(rdb, "portfolio-admin:rate_limit")
	}

	emitter := telemetryotel.NewEventEmitter(providers.LoggerProvider)
	var auditRepo auditrepo.Repository
	if pool != nil {
		auditRepo = auditrepo.NewPostgresRepository(pool)
	}
	auditLogger := audit.NewLogger(auditRepo, middleware.ClientIP, emitter, logger)

	hasher := security.NewHasher(cfg.BcryptCost)
	verifier := security.NewCredentialVerifier(security.AdminCredentials{
		Username:            cfg.AdminUsername,
		PasswordHash:        cfg.AdminPasswordHash,
		NotificationAddress: cfg.AdminEmail,
	}, hasher)

	var notifier email.Notifier
	var devOTP *devotphandler.Handler
	if cfg.OTPReturnToClient {
		store := devotp.NewMemoryStore()
		notifier = devotp.NewNotifier(store, cfg.OTPTTL())
		devOTP = devotphandler.New(store, cfg.AdminEmail)
		logger.Warn("dev OTP mode: codes are not emailed and are readable at GET /dev/otp")
	} else {
		notifier = email.NewOTPNotifier(email.NewResendClient(cfg.ResendAPIKey, cfg.ResendBaseURL),
			cfg.EmailFrom, cfg.OTPTTL(), cfg.EmailSendTimeout())
	}

	auth := identityservice.NewAuthService(verifier, notifier, auditLogger, identityservice.Config{
		OTPKey:      []byte(cfg.OTPHMACKey),
		OTPTTL:      cfg.OTPTTL(),
		MaxAttempts: cfg.OTPMaxAttempts,
		Attempts:    limiter,
		Actor:       cfg.AdminUsername,
		Tracer:      providers.Tracer(),
		Meter:       providers.Meter(),
		Logger:      logger,
	})

	checks := []healthhandler.Check{}
	var content *portfoliohandler.Content
	if pool != nil {
		checks = append(checks, healthhandler.Check{Name: "postgres", Pinger: pool})
		content = portfoliohandler.NewContent(portfoliohandler.FromRepository(portfoliorepo.NewStore(pool)), logger)
	}
	if rdb != nil {
		checks = append(checks, healthhandler.Check{Name: "redis", Pinger: healthhandler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})})
	}

	deps := server.Deps{
		Sessions:       sessions,
		Auth:           auth,
		Password:       identityhandler.NewPassword(verifier, hasher, cfg.AdminUsername),
		Content:        content,
		AuditRepo:      auditRepo,
		AuditLogger:    auditLogger,
		Actor:          cfg.AdminUsername,
		Health:         healthhandler.New(checks...),
		Metrics:        metrics.New(),
		Emitter:        emitter,
		Limiter:        limiter,
		SignInLimit:    middleware.RateLimitRule{Scope: "signin", Limit: cfg.RateLimitSignIn, Window: cfg.RateLimitWindow()},
		VerifyLimit:    middleware.RateLimitRule{Scope: "verify", Limit: cfg.RateLimitVerify, Window: cfg.RateLimitWindow()},
		TrustedProxies: trusted,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
	}
	if devOTP != nil {
		deps.DevOTP = devOTP
	}
	return deps, cleanup, nil
}

// newCodec returns the cookie codec selected by SESSION_CODEC.
func newCodec(cfg *config.Config) (session.Codec, error) {
	switch cfg.SessionCodec {
	case config.CodecJWT:
		priv, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
		if err != nil {
			return nil, fmt.Errorf("session: load JWT keys: %w", err)
		}
		return session.NewJWTCodec(security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience)), nil
	default:
		return session.NewSecureCookieCodec([]byte(cfg.SessionHashKey), []byte(cfg.SessionBlockKey), cfg.CookieMaxAge()), nil
	}
}
