package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one key=value line per request.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.Printf("request_id=%s method=%s path=%s status=%d bytes=%d remote_ip=%s latency=%s",
				RequestIDFromContext(c), req.Method, req.URL.Path, c.Response().Status, c.Response().Size, c.RealIP(), latency)

			return err
		}
	}
}
