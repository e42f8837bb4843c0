package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskboard/api"

// mutationMetrics records the stages of one mutation request (guard, persist,
// broadcast) into a span plus one structured log entry.
type mutationMetrics struct {
	logger *log.Logger
	span   trace.Span
	route  string
	start  time.Time

	guardDuration     time.Duration
	persistDuration   time.Duration
	broadcastDuration time.Duration
	errorStage        string
}

func newMutationMetrics(ctx context.Context, logger *log.Logger, route string) (*mutationMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "api.mutation",
		trace.WithAttributes(attribute.String("route", route)))
	return &mutationMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
	}, spanCtx
}

func (m *mutationMetrics) ObserveGuard(d time.Duration) {
	if d > 0 {
		m.guardDuration = d
	}
}

func (m *mutationMetrics) ObservePersist(d time.Duration) {
	if d > 0 {
		m.persistDuration = d
	}
}

func (m *mutationMetrics) ObserveBroadcast(d time.Duration) {
	if d > 0 {
		m.broadcastDuration = d
	}
}

func (m *mutationMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log finalizes the span and emits one metrics entry for the request.
func (m *mutationMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	if m.span != nil {
		m.span.SetAttributes(attribute.Int("http.status", status))
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("error_stage", m.errorStage))
		}
		if err != nil || status >= 500 {
			m.span.SetStatus(codes.Error, m.errorStage)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":    m.route,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.guardDuration > 0 {
		fields["guard_ms"] = durationToMillis(m.guardDuration)
	}
	if m.persistDuration > 0 {
		fields["persist_ms"] = durationToMillis(m.persistDuration)
	}
	if m.broadcastDuration > 0 {
		fields["broadcast_ms"] = durationToMillis(m.broadcastDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("mutation.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
