package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	telemetrydomain "portfolio-admin/internal/telemetry/domain"
	"portfolio-admin/internal/telemetry/metrics"
)

type chanEmitter struct {
	ch chan *telemetrydomain.Event
}

func (e *chanEmitter) Emit(ctx context.Context, ev *telemetrydomain.Event) error {
	e.ch <- ev
	return nil
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/2", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/projects/{id}", "GET", "404")); got != 2 {
		t.Errorf("pattern count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/ok", "GET", "200")); got != 1 {
		t.Errorf("implicit 200 count = %v, want 1", got)
	}
}

func TestTelemetry_EmitsRequestEvent(t *testing.T) {
	em := &chanEmitter{ch: make(chan *telemetrydomain.Event, 2)}
	r := chi.NewRouter()
	r.Use(RequestContext(nil))
	r.Use(Telemetry(em, map[string]bool{"/health": true}))
	r.Post("/signIn", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	req := httptest.NewRequest(http.MethodPost, "/signIn", nil)
	req.RemoteAddr = "192.0.2.8:9000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case ev := <-em.ch:
		if ev.EventType != "http_request" || ev.Resource != "/signIn" || ev.IP != "192.0.2.8" {
			t.Errorf("event = %+v", ev)
		}
		var meta httpRequestMetadata
		if err := json.Unmarshal(ev.Metadata, &meta); err != nil {
			t.Fatalf("metadata: %v", err)
		}
		if meta.Status != http.StatusUnauthorized || meta.Method != http.MethodPost {
			t.Errorf("metadata = %+v", meta)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event emitted")
	}
	select {
	case ev := <-em.ch:
		t.Errorf("unexpected extra event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTelemetry_NilEmitterPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	Telemetry(nil, nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
