package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bk-med/kanban/internal/log"
)

// WithMetrics records a counter and a latency histogram per route. The
// instruments go through the global meter provider, so they are no-ops
// until metrics are enabled.
func WithMetrics() gin.HandlerFunc {
	meter := otel.Meter("kanban/server")

	requests, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Number of HTTP requests processed"),
	)
	if err != nil {
		log.Warn(context.Background(), "failed to register request counter", log.Cause(err))
		return func(c *gin.Context) { c.Next() }
	}

	duration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Warn(context.Background(), "failed to register duration histogram", log.Cause(err))
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.Int("status", c.Writer.Status()),
		)

		ctx := c.Request.Context()
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
