package scoringrouter

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
)

// EventHandlers is what the router dispatches to.
type EventHandlers interface {
	HandleRaceResultsSubmitted(msg *message.Message) ([]*message.Message, error)
}

// ScoringRouter binds scoring topics to their handlers.
type ScoringRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	publisher      message.Publisher
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewScoringRouter creates a new ScoringRouter. A nil registry disables
// router metrics.
func NewScoringRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *ScoringRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(registry, "marathon_draft", "scoring")
		metricsBuilder = &builder
	}

	return &ScoringRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure sets up the middlewares and registers the scoring handlers.
func (r *ScoringRouter) Configure(ctx context.Context, handlers EventHandlers) error {
	if r.metricsBuilder != nil {
		r.logger.InfoContext(ctx, "Adding Prometheus router metrics middleware for Scoring")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
		}.Middleware,
		middleware.Recoverer,
		TraceHandler(r.tracer),
	)

	r.RegisterHandlers(ctx, handlers)
	return nil
}

// RegisterHandlers binds event topics to their handler logic.
func (r *ScoringRouter) RegisterHandlers(ctx context.Context, handlers EventHandlers) {
	r.logger.InfoContext(ctx, "Registering Scoring Event Handlers")

	r.Router.AddHandler(
		"scoring."+eventbus.RaceResultsSubmittedV1,
		eventbus.RaceResultsSubmittedV1,
		r.subscriber,
		eventbus.ScoringFailedV1,
		r.publisher,
		handlers.HandleRaceResultsSubmitted,
	)
}

// Close stops the router.
func (r *ScoringRouter) Close() error {
	return r.Router.Close()
}

// TraceHandler opens a consumer span per message.
func TraceHandler(tracer trace.Tracer) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx, span := tracer.Start(msg.Context(), message.HandlerNameFromCtx(msg.Context()),
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("messaging.message.id", msg.UUID),
					attribute.String("messaging.destination", message.SubscribeTopicFromCtx(msg.Context())),
					attribute.String("correlation_id", middleware.MessageCorrelationID(msg)),
				),
			)
			defer span.End()

			msg.SetContext(ctx)
			out, err := h(msg)
			if err != nil {
				span.RecordError(err)
			}
			return out, err
		}
	}
}
