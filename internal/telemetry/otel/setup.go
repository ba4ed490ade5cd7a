// Package otel provides OpenTelemetry TracerProvider, MeterProvider, and LoggerProvider
// configured with OTLP gRPC exporters for the HTTP server and worker.
package otel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// Providers holds the OpenTelemetry providers and a shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error
}

// parseEndpoint turns an OTLP endpoint into a gRPC host:port target. Paths and queries are dropped.
// Plain http endpoints, or any endpoint when insecureOverride is set, skip TLS.
func parseEndpoint(endpoint string, insecureOverride bool) (target string, insecure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return u.Host, insecureOverride || u.Scheme != "https", nil
}

// metricExportInterval is how often the periodic reader pushes metrics.
const metricExportInterval = 10 * time.Second

// shutdownStack runs provider shutdowns in reverse creation order.
type shutdownStack []func(context.Context) error

func (s shutdownStack) run(ctx context.Context) error {
	var errs []error
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i](ctx); err != nil {
			slog.Error("telemetry: shutdown", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewProviders creates providers that export via OTLP to endpoint.
// If endpoint is empty, SDK providers without exporters are returned and Shutdown is a no-op.
func NewProviders(ctx context.Context, endpoint, serviceName string, insecureOverride bool) (*Providers, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}
	target, insecure, err := parseEndpoint(endpoint, insecureOverride)
	if err != nil {
		return nil, err
	}
	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}

	p := &Providers{}
	var stack shutdownStack
	fail := func(err error) (*Providers, error) {
		_ = stack.run(ctx)
		return nil, err
	}

	spans, err := otlptracegrpc.New(ctx, traceOptions(target, insecure)...)
	if err != nil {
		return fail(err)
	}
	p.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(spans), sdktrace.WithResource(res))
	stack = append(stack, p.TracerProvider.Shutdown)

	metrics, err := otlpmetricgrpc.New(ctx, metricOptions(target, insecure)...)
	if err != nil {
		return fail(err)
	}
	reader := metric.NewPeriodicReader(metrics, metric.WithInterval(metricExportInterval))
	p.MeterProvider = metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader))
	stack = append(stack, p.MeterProvider.Shutdown)

	records, err := otlploggrpc.New(ctx, logOptions(target, insecure)...)
	if err != nil {
		return fail(err)
	}
	p.LoggerProvider = sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(records)), sdklog.WithResource(res))
	stack = append(stack, p.LoggerProvider.Shutdown)

	p.Shutdown = stack.run
	return p, nil
}

func traceOptions(target string, insecure bool) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

func metricOptions(target string, insecure bool) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
	if insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return opts
}

func logOptions(target string, insecure bool) []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(target)}
	if insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	return opts
}

// SetGlobal sets the global TracerProvider and MeterProvider. The LoggerProvider is passed explicitly
// to NewEventEmitter instead.
func (p *Providers) SetGlobal() {
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
}

// Tracer returns the service tracer, falling back to the global provider.
func (p *Providers) Tracer() trace.Tracer {
	if p == nil || p.TracerProvider == nil {
		return otel.Tracer(instrumentationName)
	}
	return p.TracerProvider.Tracer(instrumentationName)
}

// Meter returns the service meter, falling back to the global provider.
func (p *Providers) Meter() otelmetric.Meter {
	if p == nil || p.MeterProvider == nil {
		return otel.Meter(instrumentationName)
	}
	return p.MeterProvider.Meter(instrumentationName)
}
