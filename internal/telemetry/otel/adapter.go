package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"portfolio-admin/internal/telemetry"
	"portfolio-admin/internal/telemetry/domain"
)

// instrumentationName scopes logs, traces and metrics emitted by this service.
const instrumentationName = "portfolio-admin"

// recordEmitter is the subset of otellog.Logger used by the emitter.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via provider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(instrumentationName)}
}

// NewEventEmitterWithLogger wraps any record sink; used in tests.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to an OTel log record with INFO severity.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetEventName(event.EventType)
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.StringValue(string(event.Metadata)))
	}
	attrs := []struct{ k, v string }{
		{"event_type", event.EventType},
		{"source", event.Source},
		{"actor", event.Actor},
		{"resource", event.Resource},
		{"client_ip", event.IP},
	}
	for _, a := range attrs {
		if a.v != "" {
			rec.AddAttributes(otellog.String(a.k, a.v))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}
