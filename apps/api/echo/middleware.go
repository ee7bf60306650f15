package echoapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// timeoutMiddleware bounds the request context; upstream calls observe the deadline.
func timeoutMiddleware(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if d <= 0 {
				return next(ctx)
			}
			c, cancel := context.WithTimeout(ctx.Request().Context(), d)
			defer cancel()
			ctx.SetRequest(ctx.Request().WithContext(c))
			return next(ctx)
		}
	}
}
