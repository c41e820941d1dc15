package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"WorkHoursMonitor/pkg/metrics"
)

func (m *middleware) NewMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		metrics.ActiveRequests.Inc()
		defer metrics.ActiveRequests.Dec()

		err := c.Next()

		// Route templates keep label cardinality bounded; raw paths carry ids.
		path := c.Route().Path
		method := c.Method()

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().StatusCode())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}
