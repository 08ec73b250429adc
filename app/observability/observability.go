// Package observability builds the logger, tracer and metric registry shared
// by every module in the process.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Black-And-White-Club/marathon-draft/app/observability/metrics"
)

// Config selects log format, trace export and service identity.
type Config struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceSampleRate float64
}

// Registry bundles the per-module metric sets.
type Registry struct {
	Prometheus *prometheus.Registry
	Roster     metrics.RosterMetrics
	Lock       metrics.LockMetrics
	Scoring    metrics.ScoringMetrics
}

// Provider is handed to every module at construction.
type Provider struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry Registry

	shutdown func(context.Context) error
}

// Init builds the process-wide observability stack. Tracing is exported over
// OTLP/gRPC only when an endpoint is configured.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	logger := NewLogger(os.Stdout, cfg).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	tp, shutdown, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Logger: logger,
		Tracer: tp.Tracer(cfg.ServiceName),
		Registry: Registry{
			Prometheus: reg,
			Roster:     metrics.NewRosterMetrics(reg),
			Lock:       metrics.NewLockMetrics(reg),
			Scoring:    metrics.NewScoringMetrics(reg),
		},
		shutdown: shutdown,
	}, nil
}

// NewNoop returns a provider that discards logs, spans and metrics.
func NewNoop() *Provider {
	return &Provider{
		Logger: NoOpLogger,
		Tracer: noop.NewTracerProvider().Tracer("noop"),
		Registry: Registry{
			Prometheus: prometheus.NewRegistry(),
			Roster:     metrics.Noop{},
			Lock:       metrics.Noop{},
			Scoring:    metrics.Noop{},
		},
	}
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// NoOpLogger discards everything.
var NoOpLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NewLogger writes JSON in production and text everywhere else.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.Environment, "production") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func newTracerProvider(ctx context.Context, cfg Config) (trace.TracerProvider, func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return noop.NewTracerProvider(), nil, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	rate := cfg.TraceSampleRate
	if rate <= 0 {
		rate = 0.1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		)),
	)
	otel.SetTracerProvider(tp)

	return tp, func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}, nil
}
