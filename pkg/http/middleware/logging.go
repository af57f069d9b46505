package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "OptionLab/pkg/logger"
)

// RequestLogging logs one line per request at debug level, 4xx at info.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if status >= 400 && status < 500 {
				l.Info("http request rejected", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
