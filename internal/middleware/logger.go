package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"github.com/nobita2041/ai-chatbot/pkg/logger"
)

// RequestIDKey 请求 ID 头
const RequestIDKey = "X-Request-ID"

// Logger 日志中间件
func Logger() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		path := string(c.Path())

		// 跳过健康检查路径的日志记录
		skipLogging := strings.HasPrefix(path, "/api/health")

		// 生成或获取请求 ID
		requestID := string(c.Request.Header.Peek(RequestIDKey))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response.Header.Set(RequestIDKey, requestID)

		reqLogger := slog.Default().With(
			"request_id", requestID,
			"method", string(c.Method()),
			"path", path,
			"client_key", ClientKey(c),
		)
		if !skipLogging {
			reqLogger.Info("request started")
		}

		// 下游通过 logger.FromContext 取得带 request_id 的 logger
		c.Next(logger.WithContext(ctx, reqLogger))

		// 记录响应信息（跳过健康检查）
		if !skipLogging {
			latency := time.Since(start)
			statusCode := c.Response.StatusCode()

			done := reqLogger.With(
				"status", statusCode,
				"latency", latency.String(),
				"latency_ms", latency.Milliseconds(),
			)

			switch {
			case statusCode >= 500:
				done.Error("request completed with server error")
			case statusCode >= 400:
				done.Warn("request completed with client error")
			default:
				done.Info("request completed")
			}
		}
	}
}

// GetRequestID 从响应头中获取请求 ID
func GetRequestID(c *app.RequestContext) string {
	return string(c.Response.Header.Peek(RequestIDKey))
}
