package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	applogger "OptionLab/pkg/logger"
)

// Allower decides whether the caller identified by key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests with 429 once the caller's budget is spent.
// Limiter failures fail open; onReject may be nil.
func RateLimit(limiter Allower, l *applogger.Logger, onReject func()) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			ok, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				l.Warn("rate limiter unavailable", applogger.Error(err), applogger.String("key", key))
				return next(c)
			}
			if !ok {
				if onReject != nil {
					onReject()
				}
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
