// Package llm adapts the upstream completion service to the domain
// interfaces: a multimodal chat model and a per-request text agent.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/nobita2041/ai-chatbot/internal/config"
)

// NewChatModel creates the OpenAI-compatible chat model shared by every request
func NewChatModel(ctx context.Context, cfg config.UpstreamConfig) (model.ToolCallingChatModel, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return cm, nil
}
