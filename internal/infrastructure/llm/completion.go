package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// completionModel 直接调用上游 chat model（多模态分支）
type completionModel struct {
	model  model.BaseChatModel
	logger *slog.Logger
}

// NewCompletionModel wraps an eino chat model
func NewCompletionModel(m model.BaseChatModel, logger *slog.Logger) domain.CompletionModel {
	return &completionModel{model: m, logger: logger}
}

// StreamCompletion implements domain.CompletionModel
func (c *completionModel) StreamCompletion(ctx context.Context, messages []entity.ChatRequestMessage) (<-chan entity.StreamChunk, error) {
	sr, err := c.model.Stream(ctx, toSchemaMessages(messages))
	if err != nil {
		return nil, fmt.Errorf("failed to start completion stream: %w", err)
	}

	out := make(chan entity.StreamChunk, streamBufferSize)
	go func() {
		defer close(out)
		if drain(ctx, sr, out, c.logger) {
			send(ctx, out, entity.StreamChunk{IsEnd: true})
		}
	}()
	return out, nil
}

// Complete implements domain.CompletionModel
func (c *completionModel) Complete(ctx context.Context, messages []entity.ChatRequestMessage) (string, error) {
	msg, err := c.model.Generate(ctx, toSchemaMessages(messages))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}
