// app/echoServer/middleware.go
package echoServer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"librecords/model"
	requestlogrepo "librecords/repository/requestlog"
)

func RegisterMiddlewares(e *echo.Echo, log *slog.Logger, logs requestlogrepo.Repo) {

	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	e.Use(RequestLogger(log, logs))
}

// RequestLogger emits one slog line per request and persists the same data
// as a request_logs row. The caller identity is whatever the JWT layer
// already put on the context; it is never decoded a second time here.
func RequestLogger(log *slog.Logger, logs requestlogrepo.Repo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			lat := time.Since(start).Milliseconds()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			username, _ := c.Get("username").(string)
			if username == "" {
				username = "unknown"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			log.Info("http",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"latency_ms", lat,
				"req_id", rid,
				"user", username,
				"ip", c.RealIP(),
			)

			// The row still gets written when the request context was
			// canceled mid-flight.
			rec := &model.RequestLog{
				Username:   username,
				Method:     c.Request().Method,
				Path:       c.Request().URL.Path,
				StatusCode: status,
				DurationMs: lat,
				RequestID:  rid,
			}
			if dbErr := logs.Insert(context.WithoutCancel(c.Request().Context()), rec); dbErr != nil {
				log.Error("request log insert failed", "err", dbErr, "req_id", rid)
			}
			return err
		}
	}
}
