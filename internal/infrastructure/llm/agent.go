package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

const (
	agentName        = "assistant"
	agentDescription = "General purpose chat assistant"
)

// agentFactory 每个请求构建一个带 system prompt 的 agent
type agentFactory struct {
	model         model.ToolCallingChatModel
	defaultPrompt string
	logger        *slog.Logger
}

// NewAgentFactory creates an AgentFactory; an empty request prompt falls
// back to defaultPrompt.
func NewAgentFactory(m model.ToolCallingChatModel, defaultPrompt string, logger *slog.Logger) domain.AgentFactory {
	return &agentFactory{model: m, defaultPrompt: defaultPrompt, logger: logger}
}

// NewAgent implements domain.AgentFactory
func (f *agentFactory) NewAgent(ctx context.Context, systemPrompt string) (domain.Agent, error) {
	if systemPrompt == "" {
		systemPrompt = f.defaultPrompt
	}

	a, err := adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:        agentName,
		Description: agentDescription,
		Instruction: systemPrompt,
		Model:       f.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &agent{agent: a, logger: f.logger}, nil
}

type agent struct {
	agent  adk.Agent
	logger *slog.Logger
}

// Stream implements domain.Agent
func (a *agent) Stream(ctx context.Context, input string) (<-chan entity.StreamChunk, error) {
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           a.agent,
		EnableStreaming: true,
	})
	iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})

	out := make(chan entity.StreamChunk, streamBufferSize)
	go a.convertEvents(ctx, iter, out)
	return out, nil
}

// convertEvents 将 agent 事件转换为 StreamChunk
func (a *agent) convertEvents(ctx context.Context, iter *adk.AsyncIterator[*adk.AgentEvent], out chan<- entity.StreamChunk) {
	defer close(out)

	for {
		event, ok := iter.Next()
		if !ok {
			send(ctx, out, entity.StreamChunk{IsEnd: true})
			return
		}
		if event.Err != nil {
			a.logger.Error("agent run failed", "error", event.Err)
			send(ctx, out, entity.StreamChunk{Error: event.Err.Error(), IsEnd: true})
			return
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}

		mv := event.Output.MessageOutput
		if mv.Role != "" && mv.Role != schema.Assistant {
			continue
		}
		if mv.IsStreaming && mv.MessageStream != nil {
			if !drain(ctx, mv.MessageStream, out, a.logger) {
				return
			}
			continue
		}
		if mv.Message != nil && mv.Message.Content != "" {
			if !send(ctx, out, entity.StreamChunk{Text: mv.Message.Content}) {
				return
			}
		}
	}
}

// Generate implements domain.Agent
func (a *agent) Generate(ctx context.Context, input string) (string, error) {
	runner := adk.NewRunner(ctx, adk.RunnerConfig{Agent: a.agent})
	iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})

	var sb strings.Builder
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			return "", fmt.Errorf("agent run failed: %w", event.Err)
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		mv := event.Output.MessageOutput
		if mv.Role != "" && mv.Role != schema.Assistant {
			continue
		}
		msg, err := mv.GetMessage()
		if err != nil {
			return "", fmt.Errorf("failed to read agent output: %w", err)
		}
		if msg != nil {
			sb.WriteString(msg.Content)
		}
	}
	return sb.String(), nil
}
