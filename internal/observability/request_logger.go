package observability

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

const unmatchedRoute = "unmatched"

// RequestRecorder receives one observation per completed request.
type RequestRecorder interface {
	Record(path string, status int, responseTimeMs float64, method string)
}

// RequestLogger logs every request, updates the HTTP collectors and feeds the
// recorder. It must sit outside the error handling middleware so the final
// status code is visible.
func RequestLogger(logger *zap.Logger, metrics *Metrics, recorder RequestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		// fasthttp reuses request buffers; anything kept past the handler is copied.
		path := utils.CopyString(c.Path())
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		if status == fiber.StatusNotFound && route == "/" {
			route = unmatchedRoute
		}

		metrics.RecordRequest(route, method, status, elapsed)
		if recorder != nil {
			recorder.Record(path, status, float64(elapsed)/float64(time.Millisecond), method)
		}

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		}
		if rid, ok := c.Locals(RequestIDKey).(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
		return err
	}
}
