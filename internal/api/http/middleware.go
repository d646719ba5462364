package http

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/edge-gateway/internal/observability"
	"github.com/spec-kit/edge-gateway/internal/proxy"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling,
// request-id propagation and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(requestIDMiddleware())
	// The request logger wraps error handling so it observes the status the
	// client actually receives.
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// requestIDMiddleware keeps an inbound X-Request-Id for pass-through and
// mints one when the client sent none.
func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(proxy.HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request().Header.Set(proxy.HeaderRequestID, reqID)
		}
		c.Set(proxy.HeaderRequestID, reqID)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// RateLimiter throttles by client IP over a fixed one-minute window using
// Redis INCR/EXPIRE. Fails open when Redis is unavailable: throttling is
// protection, not a correctness gate.
func RateLimiter(client *redis.Client, perMinute int, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || perMinute <= 0 {
			return c.Next()
		}

		window := time.Now().Unix() / 60
		key := "ratelimit:" + c.IP() + ":" + strconv.FormatInt(window, 10)

		count, err := client.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			client.Expire(c.UserContext(), key, time.Minute)
		}
		if count > int64(perMinute) {
			return apperrors.NewTooManyRequests("too many requests, slow down")
		}
		return c.Next()
	}
}
