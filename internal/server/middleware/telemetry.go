package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"portfolio-admin/internal/telemetry"
	telemetrydomain "portfolio-admin/internal/telemetry/domain"
	"portfolio-admin/internal/telemetry/metrics"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
}

// Metrics records request count and latency per chi route pattern. m may be nil.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			route := routePattern(r)
			m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status(ww))).Inc()
			m.Duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// Telemetry emits an http_request event after each request, except for paths in skip.
// Emission is asynchronous and never affects the response. emitter may be nil.
func Telemetry(emitter telemetry.EventEmitter, skip map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if emitter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if skip[r.URL.Path] {
				return
			}
			route := routePattern(r)
			meta, _ := json.Marshal(httpRequestMetadata{
				Method:     r.Method,
				Route:      route,
				Status:     status(ww),
				DurationMs: time.Since(start).Milliseconds(),
			})
			telemetry.EmitAsync(emitter, &telemetrydomain.Event{
				EventType: "http_request",
				Source:    "http_middleware",
				Resource:  route,
				IP:        ClientIP(r.Context()),
				Metadata:  meta,
				CreatedAt: time.Now().UTC(),
			})
		})
	}
}

// routePattern returns the matched chi pattern so label cardinality stays bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func status(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
