package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/domain/mocks"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recorder 记录上游调用
type recorder struct {
	completionMsgs []entity.ChatRequestMessage
	agentPrompt    string
	agentInput     string
	completions    int
	agents         int
}

func newTestUsecase(rec *recorder, upstreamErr error) domain.ChatUsecase {
	completion := &mocks.MockCompletionModel{
		StreamCompletionFunc: func(_ context.Context, msgs []entity.ChatRequestMessage) (<-chan entity.StreamChunk, error) {
			rec.completions++
			rec.completionMsgs = msgs
			if upstreamErr != nil {
				return nil, upstreamErr
			}
			return mocks.ChunkStream("vision ", "reply"), nil
		},
		CompleteFunc: func(_ context.Context, msgs []entity.ChatRequestMessage) (string, error) {
			rec.completions++
			rec.completionMsgs = msgs
			return "vision reply", upstreamErr
		},
	}
	agents := &mocks.MockAgentFactory{
		NewAgentFunc: func(_ context.Context, prompt string) (domain.Agent, error) {
			rec.agents++
			rec.agentPrompt = prompt
			return &mocks.MockAgent{
				StreamFunc: func(_ context.Context, input string) (<-chan entity.StreamChunk, error) {
					rec.agentInput = input
					if upstreamErr != nil {
						return nil, upstreamErr
					}
					return mocks.ChunkStream("agent ", "reply"), nil
				},
				GenerateFunc: func(_ context.Context, input string) (string, error) {
					rec.agentInput = input
					return "agent reply", upstreamErr
				},
			}, nil
		},
	}
	return NewChatUsecase(completion, agents, validation.New(validation.DefaultLimits()), testLogger())
}

func drain(ch <-chan entity.StreamChunk) string {
	var sb strings.Builder
	for c := range ch {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

func textRequest(prompt string, texts ...string) *entity.ChatRequest {
	req := &entity.ChatRequest{SystemPrompt: prompt}
	for i, t := range texts {
		role := entity.RoleUser
		if i%2 == 1 {
			role = entity.RoleAssistant
		}
		req.Messages = append(req.Messages, entity.ChatRequestMessage{Role: role, Content: entity.TextContent(t)})
	}
	return req
}

func TestChatStreaming_TextOnlyUsesAgentWithLastMessage(t *testing.T) {
	rec := &recorder{}
	uc := newTestUsecase(rec, nil)

	ch, err := uc.ChatStreaming(context.Background(), textRequest("be terse", "first", "answer", "second"))
	require.NoError(t, err)

	assert.Equal(t, "agent reply", drain(ch))
	assert.Equal(t, 1, rec.agents)
	assert.Equal(t, 0, rec.completions)
	assert.Equal(t, "be terse", rec.agentPrompt)
	assert.Equal(t, "second", rec.agentInput)
}

func TestChatStreaming_MultimodalUsesCompletionWithSystemPrefix(t *testing.T) {
	rec := &recorder{}
	uc := newTestUsecase(rec, nil)

	req := &entity.ChatRequest{
		SystemPrompt: "describe images",
		Messages: []entity.ChatRequestMessage{
			{Role: entity.RoleUser, Content: entity.TextContent("hello")},
			{Role: entity.RoleUser, Content: entity.PartsContent(
				entity.TextPart("what is it?"),
				entity.ImagePart("data:image/png;base64,iVBORw0KGgo="),
			)},
		},
	}

	ch, err := uc.ChatStreaming(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "vision reply", drain(ch))
	assert.Equal(t, 0, rec.agents)
	require.Len(t, rec.completionMsgs, 3)
	assert.Equal(t, entity.RoleSystem, rec.completionMsgs[0].Role)
	assert.Equal(t, "describe images", rec.completionMsgs[0].Content.Text)
	assert.True(t, rec.completionMsgs[2].Content.IsMultipart())
}

func TestChatStreaming_MultimodalWithoutPromptSendsMessagesOnly(t *testing.T) {
	rec := &recorder{}
	uc := newTestUsecase(rec, nil)

	req := &entity.ChatRequest{Messages: []entity.ChatRequestMessage{
		{Role: entity.RoleUser, Content: entity.PartsContent(entity.ImagePart("data:image/gif;base64,R0lGODlh"))},
	}}
	ch, err := uc.ChatStreaming(context.Background(), req)
	require.NoError(t, err)
	drain(ch)

	require.Len(t, rec.completionMsgs, 1)
	assert.Equal(t, entity.RoleUser, rec.completionMsgs[0].Role)
}

func TestChatStreaming_ValidationNeverCallsUpstream(t *testing.T) {
	tests := []struct {
		name string
		req  *entity.ChatRequest
	}{
		{name: "no messages", req: &entity.ChatRequest{}},
		{name: "too many messages", req: textRequest("", make([]string, 51)...)},
		{name: "content too long", req: textRequest("", strings.Repeat("a", 10001))},
		{name: "prompt too long", req: textRequest(strings.Repeat("p", 5001), "hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			uc := newTestUsecase(rec, nil)

			_, err := uc.ChatStreaming(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, domain.IsInvalidInput(err))
			assert.NotEmpty(t, domain.ValidationDetails(err))
			assert.Zero(t, rec.agents+rec.completions)
		})
	}
}

func TestChatStreaming_StartFailureIsUpstreamError(t *testing.T) {
	uc := newTestUsecase(&recorder{}, errors.New("connection reset"))

	_, err := uc.ChatStreaming(context.Background(), textRequest("", "hi"))
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
	assert.False(t, domain.IsInvalidInput(err))
}

func TestChat_Branches(t *testing.T) {
	rec := &recorder{}
	uc := newTestUsecase(rec, nil)

	resp, err := uc.Chat(context.Background(), textRequest("", "hi"))
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "agent reply", resp.Message.Content)
	assert.Equal(t, "", rec.agentPrompt)

	resp, err = uc.Chat(context.Background(), &entity.ChatRequest{Messages: []entity.ChatRequestMessage{
		{Role: entity.RoleUser, Content: entity.PartsContent(entity.TextPart("look"), entity.ImagePart("data:image/webp;base64,UklGRg=="))},
	}})
	require.NoError(t, err)
	assert.Equal(t, "vision reply", resp.Message.Content)
}

func TestChat_UpstreamFailure(t *testing.T) {
	uc := newTestUsecase(&recorder{}, errors.New("quota exceeded"))

	_, err := uc.Chat(context.Background(), textRequest("", "hi"))
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}
