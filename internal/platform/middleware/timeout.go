package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestTimeout sets a deadline on each request context. The handler runs
// on the request goroutine and owns the response; when it gives up with
// context.DeadlineExceeded the error becomes a 504 with code TIMEOUT.
// Provenance reads carry their own shorter deadlines, so a status query
// normally finishes well inside this bound. /metrics and /health are exempt.
// A non-positive timeout disables the deadline.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: timeout,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/metrics" || strings.HasPrefix(path, "/health")
		},
		ErrorHandler: func(err error, c echo.Context) error {
			if !errors.Is(err, context.DeadlineExceeded) || c.Response().Committed {
				return err
			}
			return echo.NewHTTPError(http.StatusGatewayTimeout, map[string]string{
				"code":    "TIMEOUT",
				"message": "request processing exceeded the allowed time limit",
			}).SetInternal(err)
		},
	})
}
