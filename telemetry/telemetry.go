// Package telemetry provides opt-in observability for query execution:
// Prometheus metrics and OpenTelemetry spans, attached through the
// executor's middleware chain.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vesperdb/vesper/query/executor"
)

const tracerName = "github.com/vesperdb/vesper"

// Metrics holds the statement-level Prometheus collectors.
type Metrics struct {
	statements *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics builds the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vesper",
			Name:      "statements_total",
			Help:      "Statements executed, by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vesper",
			Name:      "statement_duration_seconds",
			Help:      "Statement execution latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.statements, m.duration)
	return m
}

// Middleware returns an executor middleware recording every statement.
func (m *Metrics) Middleware() executor.Middleware {
	return func(ctx context.Context, event *executor.QueryEvent, next func() error) error {
		err := next()
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.statements.WithLabelValues(status).Inc()
		m.duration.Observe(event.Duration.Seconds())
		return err
	}
}

// TracingMiddleware returns an executor middleware that records one span
// per statement. A nil provider falls back to the global one. The span
// carries the parameterized SQL text only, never argument values.
func TracingMiddleware(tp trace.TracerProvider) executor.Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)
	return func(ctx context.Context, event *executor.QueryEvent, next func() error) error {
		_, span := tracer.Start(ctx, "vesper.statement",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithTimestamp(time.Now()),
			trace.WithAttributes(
				attribute.String("db.statement", event.SQL),
				attribute.Int("db.args", event.Args),
			),
		)
		err := next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		return err
	}
}
