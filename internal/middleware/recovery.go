package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/nobita2041/ai-chatbot/internal/handler/dto"
	"github.com/nobita2041/ai-chatbot/pkg/logger"
)

// Recovery 捕获 panic 并返回 500 JSON
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.FromContext(ctx).Error("panic recovered",
				"request_id", GetRequestID(c),
				"method", string(c.Method()),
				"path", string(c.Path()),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			c.AbortWithStatusJSON(consts.StatusInternalServerError, dto.ErrorResponse{
				Error: dto.ErrInternalServer,
			})
		}()

		c.Next(ctx)
	}
}
