package usecase

import (
	"context"
	"log/slog"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

// chatUsecase is ChatUsecase interface的实现。
// 它校验请求，并在多模态 chat model 与文本 agent 之间选择上游路径。
type chatUsecase struct {
	completion domain.CompletionModel
	agents     domain.AgentFactory
	validator  *validation.Validator
	logger     *slog.Logger
}

// NewChatUsecase 创建一个新的 Chat 用例实例。
//
// Parameters:
//   - completion: 多模态 chat model，接收完整消息列表
//   - agents: 按请求构建带 system prompt 的文本 agent
//   - validator: 请求边界校验器
//   - logger: 结构化日志记录器
//
// Returns:
//   - domain.ChatUsecase interface实现
func NewChatUsecase(
	completion domain.CompletionModel,
	agents domain.AgentFactory,
	validator *validation.Validator,
	logger *slog.Logger,
) domain.ChatUsecase {
	return &chatUsecase{
		completion: completion,
		agents:     agents,
		validator:  validator,
		logger:     logger,
	}
}

// Chat 校验请求并返回完整的 assistant 回复（非流式）。
//
// 包含数组内容的请求走多模态路径：system prompt（如果有）作为 system 消息，
// 后接全部消息。其余请求只把最后一条消息的文本交给 agent。
//
// Returns:
//   - *entity.ChatResponse: role 固定为 assistant
//   - error: 校验失败时为 ValidationError，上游失败时为 UpstreamError
func (u *chatUsecase) Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	if err := u.validate(req); err != nil {
		return nil, err
	}

	var (
		text string
		err  error
	)
	if req.HasMultipart() {
		u.logger.Debug("chat via completion model", "messages", len(req.Messages))
		text, err = u.completion.Complete(ctx, withSystemPrompt(req))
	} else {
		text, err = u.generateWithAgent(ctx, req)
	}
	if err != nil {
		u.logger.Error("chat failed", "error", err)
		return nil, domain.NewUpstreamError(err)
	}

	return &entity.ChatResponse{
		Message: entity.ReplyMessage{Role: entity.RoleAssistant, Content: text},
	}, nil
}

// ChatStreaming 校验请求并返回 token 流。
//
// 返回 error 时没有任何输出；之后的上游失败以 Error 块的形式出现在流中。
func (u *chatUsecase) ChatStreaming(ctx context.Context, req *entity.ChatRequest) (<-chan entity.StreamChunk, error) {
	if err := u.validate(req); err != nil {
		return nil, err
	}

	var (
		ch  <-chan entity.StreamChunk
		err error
	)
	if req.HasMultipart() {
		u.logger.Debug("streaming via completion model", "messages", len(req.Messages))
		ch, err = u.completion.StreamCompletion(ctx, withSystemPrompt(req))
	} else {
		ch, err = u.streamWithAgent(ctx, req)
	}
	if err != nil {
		u.logger.Error("failed to start stream", "error", err)
		return nil, domain.NewUpstreamError(err)
	}
	return ch, nil
}

func (u *chatUsecase) validate(req *entity.ChatRequest) error {
	if errs := u.validator.Validate(req); len(errs) > 0 {
		u.logger.Info("request rejected by validation", "violations", len(errs))
		return domain.NewValidationError(errs)
	}
	return nil
}

func (u *chatUsecase) generateWithAgent(ctx context.Context, req *entity.ChatRequest) (string, error) {
	agent, err := u.agents.NewAgent(ctx, req.SystemPrompt)
	if err != nil {
		return "", err
	}
	last, _ := req.LastMessage()
	return agent.Generate(ctx, last.Content.PlainText())
}

func (u *chatUsecase) streamWithAgent(ctx context.Context, req *entity.ChatRequest) (<-chan entity.StreamChunk, error) {
	agent, err := u.agents.NewAgent(ctx, req.SystemPrompt)
	if err != nil {
		return nil, err
	}
	last, _ := req.LastMessage()
	return agent.Stream(ctx, last.Content.PlainText())
}

// withSystemPrompt prefixes the system prompt, when set, as a system message
func withSystemPrompt(req *entity.ChatRequest) []entity.ChatRequestMessage {
	if req.SystemPrompt == "" {
		return req.Messages
	}
	msgs := make([]entity.ChatRequestMessage, 0, len(req.Messages)+1)
	msgs = append(msgs, entity.ChatRequestMessage{
		Role:    entity.RoleSystem,
		Content: entity.TextContent(req.SystemPrompt),
	})
	return append(msgs, req.Messages...)
}
