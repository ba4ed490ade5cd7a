// Package middleware holds the HTTP middleware applied in front of every handler.
package middleware

import (
	"net/http"
	"path"
	"strings"

	"portfolio-admin/internal/identity/handler"
	"portfolio-admin/internal/session"
	sessiondomain "portfolio-admin/internal/session/domain"
	"portfolio-admin/internal/telemetry/metrics"
)

// Class is the guard's view of a request path.
type Class int

const (
	ClassPublic Class = iota
	ClassAdmin
	ClassAuth
	ClassStatic
)

func (c Class) String() string {
	switch c {
	case ClassAdmin:
		return "admin"
	case ClassAuth:
		return "auth"
	case ClassStatic:
		return "static"
	default:
		return "public"
	}
}

const (
	adminPrefix = "/admin"
	authPrefix  = "/auth"
)

var staticExtensions = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
}

// Decision is the result of Classify: allow the request, or redirect to RedirectTo.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// ClassifyPath reports which rule set applies to p. Prefixes match whole segments,
// so /administrator is public. Admin and auth prefixes win over the static-asset
// rule, so /admin/x.png is still guarded.
func ClassifyPath(p string) Class {
	switch {
	case hasSegmentPrefix(p, adminPrefix):
		return ClassAdmin
	case hasSegmentPrefix(p, authPrefix):
		return ClassAuth
	case strings.HasPrefix(p, "/static/"), p == "/favicon.ico", staticExtensions[strings.ToLower(path.Ext(p))]:
		return ClassStatic
	default:
		return ClassPublic
	}
}

func hasSegmentPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Classify decides access for p from the session flags alone. It does no I/O.
//
//	admin path, not both flags  -> redirect to login
//	admin path, both flags      -> allow
//	auth path, both flags       -> redirect to admin home
//	auth path, otherwise        -> allow
//	anything else               -> allow
func Classify(p string, st *sessiondomain.State) Decision {
	switch ClassifyPath(p) {
	case ClassAdmin:
		if !st.Authenticated() {
			return Decision{RedirectTo: handler.LoginPath}
		}
	case ClassAuth:
		if st.Authenticated() {
			return Decision{RedirectTo: handler.AdminHome}
		}
	}
	return Decision{Allow: true}
}

// Guard enforces Classify on every request and stores the loaded session in the context.
// Static assets skip cookie decoding. m may be nil.
func Guard(sessions *session.Store, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := ClassifyPath(r.URL.Path)
			if class == ClassStatic {
				next.ServeHTTP(w, r)
				return
			}
			st := sessions.Load(r)
			d := Classify(r.URL.Path, st)
			if !d.Allow {
				observeGuard(m, class, "redirect")
				http.Redirect(w, r, d.RedirectTo, http.StatusTemporaryRedirect)
				return
			}
			observeGuard(m, class, "allow")
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), st)))
		})
	}
}

func observeGuard(m *metrics.Metrics, class Class, decision string) {
	if m == nil || class == ClassPublic {
		return
	}
	m.GuardDecisions.WithLabelValues(class.String(), decision).Inc()
}
