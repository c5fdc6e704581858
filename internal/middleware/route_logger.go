package middleware

import (
	"errors"
	"time"

	"clubhub-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger emits one structured line per request: method, path, status
// and duration, keyed by trace ID. Errors have not reached the error
// handler yet here, so the status is derived from the error itself.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var domainErr *domain.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &domainErr):
			status = StatusForKind(domainErr.Kind)
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
		case err != nil:
			status = fiber.StatusInternalServerError
		}

		log.Info().
			Str("trace_id", GetTraceID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request")
		return err
	}
}
