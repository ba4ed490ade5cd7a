package middleware

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"portfolio-admin/internal/audit"
)

// AdminAudit records an audit entry after each successful admin API mutation.
// Reads and failed requests are not recorded. actor names the single operator.
func AdminAudit(logger audit.AuditLogger, actor string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ar, ok := audit.ParseRoute(r.Method, r.URL.Path)
			if !ok || logger == nil {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				return
			}
			meta, _ := json.Marshal(map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": ww.Status(),
			})
			logger.LogEvent(r.Context(), actor, ar.Action, ar.Resource, string(meta))
		})
	}
}
