package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/protocol/http1/resp"

	"github.com/nobita2041/ai-chatbot/internal/domain"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/handler/dto"
	"github.com/nobita2041/ai-chatbot/internal/middleware"
)

// ChatHandler Chat 请求处理器
type ChatHandler struct {
	usecase domain.ChatUsecase
	logger  *slog.Logger
}

// NewChatHandler 创建 Chat 处理器
func NewChatHandler(usecase domain.ChatUsecase, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Chat 流式Chat接口
//
//	@Summary		Streaming chat
//	@Description	Streams the assistant reply as raw UTF-8 text over chunked transfer. Upstream failure after the first byte appends "\n[Error occurred during generation]".
//	@Description	Upstream failure before the first byte returns 500 with the JSON error envelope instead of a 200 stream carrying only the marker.
//	@Tags			Chat
//	@Accept			json
//	@Produce		plain
//	@Param			request	body		dto.ChatRequest		true	"Chat request"
//	@Success		200		{string}	string				"Assistant text"
//	@Failure		400		{object}	dto.ErrorResponse	"Validation failed"
//	@Failure		429		{object}	dto.ErrorResponse	"Too many requests"
//	@Failure		500		{object}	dto.ErrorResponse	"Internal server error, or upstream failed before the first byte"
//	@Router			/chat [post]
func (h *ChatHandler) Chat(ctx context.Context, c *app.RequestContext) {
	logger := h.logger.With("request_id", middleware.GetRequestID(c))

	var req entity.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		logger.Warn("failed to bind request", "error", err)
		BadRequestResponse(c, err)
		return
	}

	// 处理器返回时停止上游生产者
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streamCh, err := h.usecase.ChatStreaming(ctx, &req)
	if err != nil {
		logger.Error("streaming chat failed", "error", err)
		ErrorResponse(c, err)
		return
	}

	// 在提交响应头之前读取第一个块，启动阶段的失败仍可返回 500
	first, ok := <-streamCh
	if ok && first.Error != "" && first.Text == "" {
		logger.Error("upstream failed before first token", "error", first.Error)
		ErrorResponse(c, domain.NewUpstreamError(errors.New(first.Error)))
		return
	}

	c.SetStatusCode(consts.StatusOK)
	c.SetContentType("text/plain; charset=utf-8")
	c.Response.Header.Set("Cache-Control", "no-cache")
	c.Response.Header.Set("X-Content-Type-Options", "nosniff")
	c.Response.HijackWriter(resp.NewChunkedBodyWriter(&c.Response, c.GetWriter()))

	if !ok {
		_ = c.Flush()
		return
	}

	written, err := writeStream(c, first, streamCh)
	if err != nil {
		logger.Warn("stream write aborted", "error", err, "bytes", written)
		return
	}
	logger.Debug("stream finished", "bytes", written)
}

// flushWriter is the part of the response the stream loop needs
type flushWriter interface {
	Write(p []byte) (int, error)
	Flush() error
}

// writeStream 写出所有文本块；上游错误时追加错误标记并结束
func writeStream(w flushWriter, first entity.StreamChunk, rest <-chan entity.StreamChunk) (int, error) {
	written := 0
	chunk, ok := first, true

	for ok {
		if chunk.Error != "" {
			n, err := w.Write([]byte(dto.StreamErrorMarker))
			written += n
			if err != nil {
				return written, err
			}
			return written, w.Flush()
		}
		if chunk.Text != "" {
			n, err := w.Write([]byte(chunk.Text))
			written += n
			if err != nil {
				return written, err
			}
			if err := w.Flush(); err != nil {
				return written, err
			}
		}
		if chunk.IsEnd {
			break
		}
		chunk, ok = <-rest
	}
	return written, nil
}

// ChatSimple 非流式Chat接口
//
//	@Summary		Non-streaming chat
//	@Description	Validates the request like /chat and returns the whole reply at once.
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ChatRequest			true	"Chat request"
//	@Success		200		{object}	dto.ChatSimpleResponse	"Assistant message"
//	@Failure		400		{object}	dto.ErrorResponse		"Validation failed"
//	@Failure		429		{object}	dto.ErrorResponse		"Too many requests"
//	@Failure		500		{object}	dto.ErrorResponse		"Internal server error"
//	@Router			/chat/simple [post]
func (h *ChatHandler) ChatSimple(ctx context.Context, c *app.RequestContext) {
	logger := h.logger.With("request_id", middleware.GetRequestID(c))

	var req entity.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		logger.Warn("failed to bind request", "error", err)
		BadRequestResponse(c, err)
		return
	}

	res, err := h.usecase.Chat(ctx, &req)
	if err != nil {
		logger.Error("chat failed", "error", err)
		ErrorResponse(c, err)
		return
	}

	c.JSON(consts.StatusOK, res)
}
