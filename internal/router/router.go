package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/swagger"
	swaggerFiles "github.com/swaggo/files"

	"github.com/nobita2041/ai-chatbot/internal/handler"
	"github.com/nobita2041/ai-chatbot/internal/middleware"
	"github.com/nobita2041/ai-chatbot/internal/ratelimit"
)

// Options 路由配置
type Options struct {
	// AllowOrigin is the CORS origin; empty allows any
	AllowOrigin string
	// EnableSwagger serves /swagger/*, debug mode only
	EnableSwagger bool
}

// Setup sets up all routes
func Setup(
	h *server.Hertz,
	opts Options,
	limiter *ratelimit.Limiter,
	chatHandler *handler.ChatHandler,
	healthHandler *handler.HealthHandler,
) {
	// Global middleware
	h.Use(middleware.Recovery())
	h.Use(middleware.Logger())
	h.Use(middleware.CORS(opts.AllowOrigin))

	// Access at: http://localhost:8080/swagger/index.html
	if opts.EnableSwagger {
		h.GET("/swagger/*any", swagger.WrapHandler(swaggerFiles.Handler))
	}

	api := h.Group("/api")
	{
		// Health check routes (no rate limit)
		api.GET("/health", healthHandler.Health)
		api.GET("/health/detailed", healthHandler.Detailed)

		chat := api.Group("/chat", middleware.RateLimit(limiter))
		{
			chat.POST("", chatHandler.Chat)
			chat.POST("/simple", chatHandler.ChatSimple)
		}
	}
}
