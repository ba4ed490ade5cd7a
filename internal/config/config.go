// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session cookie codecs accepted by SESSION_CODEC.
const (
	CodecSecureCookie = "securecookie"
	CodecJWT          = "jwt"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment (e.g. "development", "production"). Production forces secure cookies
	// and forbids dev OTP mode.
	Env string `mapstructure:"APP_ENV"`
	// DatabaseURL is the Postgres DSN for audit logs and portfolio content; empty disables both.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the redis:// URL for the sign-in rate limiter; empty disables rate limiting.
	RedisURL string `mapstructure:"REDIS_URL"`

	// AdminUsername is the single operator identity accepted by sign-in.
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	// AdminPasswordHash is the bcrypt hash of the operator password (see `admin hash-password`).
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	// AdminEmail is where OTP codes are delivered.
	AdminEmail string `mapstructure:"ADMIN_EMAIL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// OTPHMACKey keys the HMAC stored in the pending_otp cookie instead of the code.
	OTPHMACKey string `mapstructure:"OTP_HMAC_KEY"`
	// OTPTTLRaw is the OTP lifetime (e.g. "10m").
	OTPTTLRaw string `mapstructure:"OTP_TTL"`
	// OTPMaxAttempts caps wrong OTP submissions per issued code; 0 disables the cap.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`
	// OTPReturnToClient when true enables dev OTP mode: no email, OTP kept in memory for GET /dev/otp.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`

	// SessionTTLRaw is the lifetime of the authenticated session cookies (e.g. "1h").
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// SessionCodec selects how cookie values are signed: "securecookie" or "jwt".
	SessionCodec string `mapstructure:"SESSION_CODEC"`
	// SessionHashKey is the HMAC key for securecookie (at least 32 bytes).
	SessionHashKey string `mapstructure:"SESSION_HASH_KEY"`
	// SessionBlockKey is the optional AES key for securecookie (16, 24, or 32 bytes).
	SessionBlockKey string `mapstructure:"SESSION_BLOCK_KEY"`
	// CookieSecure forces the Secure attribute outside production.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used by the jwt codec.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim on cookie tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim on cookie tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// ResendAPIKey is the transactional email API key. Required unless dev OTP mode is on.
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	// ResendBaseURL is the email API endpoint (default https://api.resend.com/emails).
	ResendBaseURL string `mapstructure:"RESEND_BASE_URL"`
	// EmailFrom is the From header for OTP mail.
	EmailFrom string `mapstructure:"EMAIL_FROM"`
	// EmailSendTimeoutRaw bounds a single OTP send including retries (e.g. "10s").
	EmailSendTimeoutRaw string `mapstructure:"EMAIL_SEND_TIMEOUT"`

	// CORSAllowedOrigins is a comma-separated list of origins for the public site.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// TrustedProxiesRaw lists comma-separated proxy IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means client IPs always come from the peer address.
	TrustedProxiesRaw string `mapstructure:"TRUSTED_PROXIES"`
	// RateLimitSignIn is the max sign-in attempts per client IP per window.
	RateLimitSignIn int `mapstructure:"RATE_LIMIT_SIGNIN"`
	// RateLimitVerify is the max OTP verification attempts per client IP per window.
	RateLimitVerify int `mapstructure:"RATE_LIMIT_VERIFY"`
	// RateLimitWindowRaw is the rate limit window (e.g. "10m").
	RateLimitWindowRaw string `mapstructure:"RATE_LIMIT_WINDOW"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty uses no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Worker-only: audit entries older than AuditRetentionDays are purged on AuditPurgeSchedule.
	AuditRetentionDays int    `mapstructure:"AUDIT_RETENTION_DAYS"`
	AuditPurgeSchedule string `mapstructure:"AUDIT_PURGE_SCHEDULE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if set fields are invalid.
// Load does not require the admin identity; servers call RequireAdmin.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTP_HMAC_KEY", "")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("SESSION_TTL", "1h")
	v.SetDefault("SESSION_CODEC", CodecSecureCookie)
	v.SetDefault("SESSION_HASH_KEY", "")
	v.SetDefault("SESSION_BLOCK_KEY", "")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "portfolio-admin")
	v.SetDefault("JWT_AUDIENCE", "portfolio-admin-session")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com/emails")
	v.SetDefault("EMAIL_FROM", "Portfolio Admin <onboarding@resend.dev>")
	v.SetDefault("EMAIL_SEND_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("RATE_LIMIT_SIGNIN", 10)
	v.SetDefault("RATE_LIMIT_VERIFY", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "10m")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "portfolio-admin")
	v.SetDefault("AUDIT_RETENTION_DAYS", 90)
	v.SetDefault("AUDIT_PURGE_SCHEDULE", "@daily")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.OTPReturnToClient && cfg.IsProduction() {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.OTPMaxAttempts < 0 {
		return nil, errors.New("config: OTP_MAX_ATTEMPTS must not be negative")
	}

	switch cfg.SessionCodec {
	case CodecSecureCookie, CodecJWT:
	default:
		return nil, errors.New("config: SESSION_CODEC must be securecookie or jwt")
	}

	if _, err := cfg.TrustedProxies(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// RequireAdmin validates the settings the HTTP server needs to run the sign-in flow.
func (c *Config) RequireAdmin() error {
	if c.AdminUsername == "" || c.AdminPasswordHash == "" || c.AdminEmail == "" {
		return errors.New("config: ADMIN_USERNAME, ADMIN_PASSWORD_HASH and ADMIN_EMAIL must be set")
	}
	if len(c.OTPHMACKey) < 32 {
		return errors.New("config: OTP_HMAC_KEY must be at least 32 bytes")
	}
	switch c.SessionCodec {
	case CodecSecureCookie:
		if len(c.SessionHashKey) < 32 {
			return errors.New("config: SESSION_HASH_KEY must be at least 32 bytes")
		}
		if n := len(c.SessionBlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
			return errors.New("config: SESSION_BLOCK_KEY must be 16, 24 or 32 bytes")
		}
	case CodecJWT:
		if c.JWTPrivateKey == "" || c.JWTPublicKey == "" {
			return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set when SESSION_CODEC=jwt")
		}
	}
	if !c.OTPReturnToClient && c.ResendAPIKey == "" {
		return errors.New("config: RESEND_API_KEY must be set unless OTP_RETURN_TO_CLIENT is true")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// SecureCookies reports whether session cookies carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.IsProduction() || c.CookieSecure
}

// OTPTTL parses OTPTTLRaw. Returns 10m if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	return parseDurationOr(c.OTPTTLRaw, 10*time.Minute)
}

// SessionTTL parses SessionTTLRaw. Returns 1h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	return parseDurationOr(c.SessionTTLRaw, time.Hour)
}

// CookieMaxAge is the decode lifetime for signed cookie values: the longer of SessionTTL and
// OTPTTL, so a pending OTP stays readable for its whole validity.
func (c *Config) CookieMaxAge() time.Duration {
	return max(c.SessionTTL(), c.OTPTTL())
}

// EmailSendTimeout parses EmailSendTimeoutRaw. Returns 10s if unset or invalid.
func (c *Config) EmailSendTimeout() time.Duration {
	return parseDurationOr(c.EmailSendTimeoutRaw, 10*time.Second)
}

// RateLimitWindow parses RateLimitWindowRaw. Returns 10m if unset or invalid.
func (c *Config) RateLimitWindow() time.Duration {
	return parseDurationOr(c.RateLimitWindowRaw, 10*time.Minute)
}

// AllowedOrigins returns CORS origins from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	if c == nil || c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TrustedProxies parses TrustedProxiesRaw. Bare IPs become single-address prefixes.
func (c *Config) TrustedProxies() ([]netip.Prefix, error) {
	if c == nil || strings.TrimSpace(c.TrustedProxiesRaw) == "" {
		return nil, nil
	}
	var out []netip.Prefix
	for _, part := range strings.Split(c.TrustedProxiesRaw, ",") {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func parseDurationOr(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
