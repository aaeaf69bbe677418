package mocks

import (
	"context"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// MockCompletionModel is a mock implementation of domain.CompletionModel
type MockCompletionModel struct {
	StreamCompletionFunc func(ctx context.Context, messages []entity.ChatRequestMessage) (<-chan entity.StreamChunk, error)
	CompleteFunc         func(ctx context.Context, messages []entity.ChatRequestMessage) (string, error)
}

// StreamCompletion mocks the StreamCompletion method
func (m *MockCompletionModel) StreamCompletion(ctx context.Context, messages []entity.ChatRequestMessage) (<-chan entity.StreamChunk, error) {
	if m.StreamCompletionFunc != nil {
		return m.StreamCompletionFunc(ctx, messages)
	}
	return ChunkStream(), nil
}

// Complete mocks the Complete method
func (m *MockCompletionModel) Complete(ctx context.Context, messages []entity.ChatRequestMessage) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "", nil
}

// MockAgent is a mock implementation of domain.Agent
type MockAgent struct {
	StreamFunc   func(ctx context.Context, input string) (<-chan entity.StreamChunk, error)
	GenerateFunc func(ctx context.Context, input string) (string, error)
}

// Stream mocks the Stream method
func (m *MockAgent) Stream(ctx context.Context, input string) (<-chan entity.StreamChunk, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, input)
	}
	return ChunkStream(), nil
}

// Generate mocks the Generate method
func (m *MockAgent) Generate(ctx context.Context, input string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input)
	}
	return "", nil
}

// MockAgentFactory is a mock implementation of domain.AgentFactory
type MockAgentFactory struct {
	NewAgentFunc func(ctx context.Context, systemPrompt string) (domain.Agent, error)
}

// NewAgent mocks the NewAgent method
func (m *MockAgentFactory) NewAgent(ctx context.Context, systemPrompt string) (domain.Agent, error) {
	if m.NewAgentFunc != nil {
		return m.NewAgentFunc(ctx, systemPrompt)
	}
	return &MockAgent{}, nil
}

// MockUpstreamProber is a mock implementation of domain.UpstreamProber
type MockUpstreamProber struct {
	HasCredentialFunc func() bool
	ProbeFunc         func(ctx context.Context) error
}

// HasCredential mocks the HasCredential method
func (m *MockUpstreamProber) HasCredential() bool {
	if m.HasCredentialFunc != nil {
		return m.HasCredentialFunc()
	}
	return true
}

// Probe mocks the Probe method
func (m *MockUpstreamProber) Probe(ctx context.Context) error {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx)
	}
	return nil
}
