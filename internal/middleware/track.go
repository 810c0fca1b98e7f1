// Package middleware wraps every request with a request id, logging and
// status metrics.
package middleware

import (
	"fmt"
	"time"

	"healthai/internal/ctx"
	"healthai/internal/metrics"
	"healthai/internal/shared"

	"github.com/aidarkhanov/nanoid"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func NewTrackMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, _ := nanoid.Generate(requestIDAlphabet, 28)
			reqID = "req_" + reqID
			values := &ctx.ContextLogValues{
				RequestID:  reqID,
				ExternalID: c.Request().Header.Get("X-Request-Id"),
				StartTime:  time.Now(),
				Path:       c.Path(),
			}
			logger := log.With("request_id", reqID)
			c.Response().Header().Set("X-Request-Id", reqID)

			cc := &ctx.Context{Context: c, Log: logger, Reqid: reqID, LogValues: values}
			err := next(cc)
			if err != nil {
				cc.Error(err)
			}

			values.RequestDuration = time.Since(values.StartTime)
			values.StatusCode = cc.Response().Status
			switch {
			case values.StatusCode >= 500:
				log.Errorw("end_of_request", zap.Inline(values))
			case values.Error != nil:
				log.Warnw("end_of_request", zap.Inline(values))
			default:
				log.Infow("end_of_request", zap.Inline(values))
			}
			metrics.ResponseCodes.WithLabelValues(cc.Path(), fmt.Sprintf("%d", values.StatusCode)).Inc()
			return nil
		}
	}
}

func NewRecoverMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			defer func() {
				_ = log.Sync()
			}()
			log.Errorw("Api Panic", "error", err.Error(), "stack", string(stack))
			return c.JSON(500, shared.NewErrorBody(shared.ErrInternalServerError))
		},
	})
}

// RequireKey rejects requests whose bearer token is not key. An empty key
// leaves the route open.
func RequireKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			got, err := shared.ExtractBearer(c)
			if err != nil {
				rerr := shared.AsRequestError(err)
				return c.JSON(rerr.StatusCode, shared.NewErrorBody(rerr))
			}
			if got != key {
				return c.JSON(401, shared.NewErrorBody(shared.ErrUnauthorized))
			}
			return next(c)
		}
	}
}
