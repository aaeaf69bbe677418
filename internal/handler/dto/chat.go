package dto

import "github.com/nobita2041/ai-chatbot/internal/domain/entity"

// ChatRequest is the body of POST /api/chat and /api/chat/simple
type ChatRequest = entity.ChatRequest

// ChatSimpleResponse is the body of a successful POST /api/chat/simple
type ChatSimpleResponse = entity.ChatResponse

// StreamErrorMarker is appended to a chunked reply when generation fails
// after the response has started.
const StreamErrorMarker = "\n[Error occurred during generation]"
