package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/appcontext"
	"github.com/Ramsey-B/clover/pkg/metrics"
)

// Logger logs one line per request and records the request metrics. Health
// and metrics probes are logged at debug so they don't drown run activity.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			route := c.Path()
			metrics.HTTPRequests.WithLabelValues(req.Method, route, statusClass(res.Status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(req.Method, route).Observe(elapsed.Seconds())

			entry := logger.WithContext(req.Context()).WithFields(map[string]any{
				"request_id": appcontext.GetRequestID(req.Context()),
				"method":     req.Method,
				"route":      route,
				"status":     res.Status,
				"remote_ip":  c.RealIP(),
				"elapsed_ms": elapsed.Milliseconds(),
				"bytes_out":  res.Size,
			})
			if isProbe(route) {
				entry.Debug("Request")
			} else {
				entry.Info("Request")
			}
			return nil
		}
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func isProbe(route string) bool {
	switch route {
	case "/metrics", "/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready":
		return true
	}
	return false
}
