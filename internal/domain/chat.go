package domain

import (
	"context"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// CompletionModel is the multimodal-capable upstream chat endpoint.
// It receives the full message list, already prefixed with the system prompt.
type CompletionModel interface {
	// StreamCompletion 流式调用上游模型
	StreamCompletion(ctx context.Context, messages []entity.ChatRequestMessage) (<-chan entity.StreamChunk, error)

	// Complete 非流式调用上游模型
	Complete(ctx context.Context, messages []entity.ChatRequestMessage) (string, error)
}

// Agent answers a single text input under a system prompt
type Agent interface {
	// Stream 流式返回 token
	Stream(ctx context.Context, input string) (<-chan entity.StreamChunk, error)

	// Generate 返回完整文本
	Generate(ctx context.Context, input string) (string, error)
}

// AgentFactory builds an Agent configured with the given system prompt.
// An empty prompt selects the default instructions.
type AgentFactory interface {
	NewAgent(ctx context.Context, systemPrompt string) (Agent, error)
}

// UpstreamProber checks connectivity to the upstream service
type UpstreamProber interface {
	// HasCredential reports whether an API credential is configured
	HasCredential() bool

	// Probe performs a lightweight live request
	Probe(ctx context.Context) error
}

// ChatUsecase Chat 用例接口
type ChatUsecase interface {
	// Chat validates and returns the full assistant reply
	Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error)

	// ChatStreaming validates and returns the chunk stream
	ChatStreaming(ctx context.Context, req *entity.ChatRequest) (<-chan entity.StreamChunk, error)
}
