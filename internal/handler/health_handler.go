package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// timestampLayout matches JavaScript's Date.toISOString
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HealthHandler 健康检查处理器
type HealthHandler struct {
	prober domain.UpstreamProber
	now    func() time.Time
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(prober domain.UpstreamProber) *HealthHandler {
	return &HealthHandler{
		prober: prober,
		now:    time.Now,
	}
}

func (h *HealthHandler) timestamp() string {
	return h.now().UTC().Format(timestampLayout)
}

// Health 基本健康检查
// @Summary Liveness
// @Description 服务进程存活即返回 ok
// @Tags health
// @Produce json
// @Success 200 {object} entity.HealthCheckResponse
// @Router /health [get]
func (h *HealthHandler) Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, entity.HealthCheckResponse{
		Status:    entity.HealthOK,
		Timestamp: h.timestamp(),
	})
}

// Detailed 详细健康检查（上游凭证与连通性）
// @Summary Dependency health
// @Description 检查 API key 是否配置，并以 5 秒超时列出上游模型
// @Tags health
// @Produce json
// @Success 200 {object} entity.HealthCheckResponse
// @Failure 503 {object} entity.HealthCheckResponse
// @Router /health/detailed [get]
func (h *HealthHandler) Detailed(ctx context.Context, c *app.RequestContext) {
	checks := make(map[string]entity.HealthCheck, 2)

	if h.prober.HasCredential() {
		checks["openai_key"] = entity.HealthCheck{Status: entity.HealthOK}

		if err := h.prober.Probe(ctx); err != nil {
			checks["openai_api"] = entity.HealthCheck{Status: entity.HealthError, Message: err.Error()}
		} else {
			checks["openai_api"] = entity.HealthCheck{Status: entity.HealthOK}
		}
	} else {
		checks["openai_key"] = entity.HealthCheck{Status: entity.HealthError, Message: "OPENAI_API_KEY is not set"}
	}

	status, code := entity.HealthOK, consts.StatusOK
	for _, check := range checks {
		if check.Status != entity.HealthOK {
			status, code = entity.HealthError, consts.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, entity.HealthCheckResponse{
		Status:    status,
		Timestamp: h.timestamp(),
		Details:   checks,
	})
}
