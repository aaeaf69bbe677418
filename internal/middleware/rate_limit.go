package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/nobita2041/ai-chatbot/internal/handler/dto"
	"github.com/nobita2041/ai-chatbot/internal/ratelimit"
	"github.com/nobita2041/ai-chatbot/pkg/logger"
)

// ClientKey derives the rate-limit key: first X-Forwarded-For entry,
// then X-Real-IP, then "unknown".
func ClientKey(c *app.RequestContext) string {
	if fwd := string(c.Request.Header.Peek("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(string(c.Request.Header.Peek("X-Real-IP"))); realIP != "" {
		return realIP
	}
	return "unknown"
}

// RateLimit 限流中间件（draft-6 RateLimit headers）
func RateLimit(limiter *ratelimit.Limiter) app.HandlerFunc {
	policy := fmt.Sprintf("%d;w=%d", limiter.Limit(), int(limiter.Window().Seconds()))

	return func(ctx context.Context, c *app.RequestContext) {
		key := ClientKey(c)

		res, err := limiter.Allow(ctx, key)
		if err != nil {
			// store 不可用时放行
			logger.FromContext(ctx).Warn("rate limit store unavailable, allowing request",
				"key", key,
				"error", err,
			)
			c.Next(ctx)
			return
		}

		h := &c.Response.Header
		h.Set("RateLimit-Policy", policy)
		h.Set("RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(res.ResetSeconds()))

		if !res.Allowed {
			logger.FromContext(ctx).Info("rate limit exceeded", "key", key)
			h.Set("Retry-After", strconv.Itoa(res.ResetSeconds()))
			c.AbortWithStatusJSON(consts.StatusTooManyRequests, dto.ErrorResponse{
				Error:   dto.ErrTooManyRequests,
				Message: dto.RateLimitMessage,
			})
			return
		}

		c.Next(ctx)
	}
}
