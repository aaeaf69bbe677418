package mocks

import (
	"context"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// MockChatUsecase is a mock implementation of domain.ChatUsecase
type MockChatUsecase struct {
	ChatFunc          func(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error)
	ChatStreamingFunc func(ctx context.Context, req *entity.ChatRequest) (<-chan entity.StreamChunk, error)
}

// Chat mocks the Chat method
func (m *MockChatUsecase) Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &entity.ChatResponse{Message: entity.ReplyMessage{Role: entity.RoleAssistant}}, nil
}

// ChatStreaming mocks the ChatStreaming method
func (m *MockChatUsecase) ChatStreaming(ctx context.Context, req *entity.ChatRequest) (<-chan entity.StreamChunk, error) {
	if m.ChatStreamingFunc != nil {
		return m.ChatStreamingFunc(ctx, req)
	}
	return ChunkStream(), nil
}

// ChunkStream returns a closed channel holding the given text chunks
// followed by an end marker.
func ChunkStream(texts ...string) <-chan entity.StreamChunk {
	ch := make(chan entity.StreamChunk, len(texts)+1)
	for _, t := range texts {
		ch <- entity.StreamChunk{Text: t}
	}
	ch <- entity.StreamChunk{IsEnd: true}
	close(ch)
	return ch
}
