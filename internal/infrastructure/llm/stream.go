package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/cloudwego/eino/schema"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// streamBufferSize 输出 channel 缓冲
const streamBufferSize = 100

// send delivers chunk unless the consumer has gone away
func send(ctx context.Context, out chan<- entity.StreamChunk, chunk entity.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain forwards every token of sr to out. It reports false when the
// stream failed or the consumer left, in which case nothing more should
// be sent.
func drain(ctx context.Context, sr *schema.StreamReader[*schema.Message], out chan<- entity.StreamChunk, logger *slog.Logger) bool {
	defer sr.Close()

	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			logger.Error("upstream stream failed", "error", err)
			send(ctx, out, entity.StreamChunk{Error: err.Error(), IsEnd: true})
			return false
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		if !send(ctx, out, entity.StreamChunk{Text: msg.Content}) {
			logger.Debug("stream consumer gone")
			return false
		}
	}
}
