// Package tracing wires OpenTelemetry: the OTLP gRPC exporter for the
// process and client spans around every outbound resty request.
package tracing

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

const (
	defaultServiceName = "hyperdemos"
	defaultEndpoint    = "localhost:4317"
)

// Config is filled from pkg/config, which already applies the OTEL_*
// environment overrides.
type Config struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64
}

func (c Config) normalized() Config {
	c.ServiceName = strings.TrimSpace(c.ServiceName)
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	c.OTLPEndpoint = sanitizeEndpoint(c.OTLPEndpoint)
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = defaultEndpoint
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
	return c
}

func noop(context.Context) error { return nil }

// Setup installs the global tracer provider and returns its shutdown func.
// Tracing never blocks startup: exporter failures are logged and leave the
// no-op provider in place.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	otel.SetTextMapPropagator(propagation.TraceContext{})
	if !cfg.Enabled {
		return noop, nil
	}
	cfg = cfg.normalized()

	creds := otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, ""))
	if cfg.OTLPInsecure {
		creds = otlptracegrpc.WithInsecure()
	}
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), creds)
	if err != nil {
		logger.Warn("otel exporter init failed, tracing disabled", "endpoint", cfg.OTLPEndpoint, "err", err)
		return noop, nil
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		logger.Warn("otel resource merge failed, using default", "err", err)
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	logger.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint, "sample_ratio", cfg.SampleRatio)
	return tp.Shutdown, nil
}

// sanitizeEndpoint turns a URL-style endpoint into the host:port the gRPC
// exporter expects.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return strings.TrimSuffix(raw, "/")
}

// InjectHeaders writes traceparent/tracestate for the span in ctx into h.
// Only TraceContext is sent so baggage never leaves the process.
func InjectHeaders(ctx context.Context, h http.Header) {
	if h == nil {
		return
	}
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(h))
}

// ParseSampleRatio reads OTEL_TRACES_SAMPLER_ARG; anything unparsable is 0,
// which Setup treats as "sample everything".
func ParseSampleRatio(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
