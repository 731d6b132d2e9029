package observability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// PipelineMetrics counts webhook ingestion outcomes. A nil receiver is a
// no-op so unit tests can skip metric setup.
type PipelineMetrics struct {
	events  metric.Int64Counter
	entries metric.Int64Counter
}

// NewPipelineMetrics registers the ingestion counters on the global meter provider
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("wearable-sync/pipeline")

	events, err := meter.Int64Counter("webhook_events_total",
		metric.WithDescription("Inbound webhook events by type and outcome"))
	if err != nil {
		return nil, err
	}

	entries, err := meter.Int64Counter("health_entries_persisted_total",
		metric.WithDescription("Health entries merged into the store by data type"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{events: events, entries: entries}, nil
}

// RecordEvent counts one webhook event with its processing outcome
func (m *PipelineMetrics) RecordEvent(ctx context.Context, eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

// RecordEntries counts persisted health entries for one data type
func (m *PipelineMetrics) RecordEntries(ctx context.Context, dataType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.entries.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("data_type", dataType),
	))
}
