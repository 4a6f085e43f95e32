package serverutils

import (
	"strconv"
	"time"

	"wine-concierge-be/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records request count, latency and in-flight requests.
// Paths are labelled by matched route so unknown URLs share one series.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		path := "unmatched"
		if route := ctx.Route(); route != nil && route.Path != "" && status != fiber.StatusNotFound {
			path = route.Path
		}

		m.HTTPRequestsTotal.WithLabelValues(ctx.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(ctx.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}
