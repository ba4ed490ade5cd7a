package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	sessiondomain "portfolio-admin/internal/session/domain"
)

type contextKey struct{ name string }

var (
	clientIPKey = contextKey{"client_ip"}
	sessionKey  = contextKey{"session"}
)

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP stored by RequestContext, or "unknown".
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// WithSession returns a context carrying the session state loaded by Guard.
func WithSession(ctx context.Context, st *sessiondomain.State) context.Context {
	return context.WithValue(ctx, sessionKey, st)
}

// SessionFrom returns the session state stored by Guard, if any.
func SessionFrom(ctx context.Context) (*sessiondomain.State, bool) {
	st, ok := ctx.Value(sessionKey).(*sessiondomain.State)
	return st, ok && st != nil
}

// RequestContext stores the client IP in the request context for audit and rate limiting.
// Forwarding headers are honoured only when the peer is in trusted.
func RequestContext(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), RequestIP(r, trusted))))
		})
	}
}

// RequestIP returns the client IP for r. The remote address is used unless it belongs to a
// trusted proxy; then X-Forwarded-For is walked right to left to the first untrusted hop,
// falling back to X-Real-IP.
func RequestIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)
	if peer == "" {
		return "unknown"
	}
	if !isTrusted(peer, trusted) {
		return peer
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		hops := strings.Split(v, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		if _, err := netip.ParseAddr(v); err == nil {
			return v
		}
	}
	return peer
}

func remoteHost(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
