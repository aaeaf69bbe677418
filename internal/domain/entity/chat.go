package entity

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// PartType 内容块类型
type PartType string

const (
	PartTypeText     PartType = "text"
	PartTypeImageURL PartType = "image_url"
)

// ImageURL references an image, usually as a data URL
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart 多模态内容块（text or image_url）
type ContentPart struct {
	Type     PartType  `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextPart builds a text part
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart builds an image_url part
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartTypeImageURL, ImageURL: &ImageURL{URL: url}}
}

// Content is either plain text or an ordered list of parts.
// On the wire it is a JSON string or a JSON array.
type Content struct {
	Text  string
	Parts []ContentPart
}

// TextContent wraps plain text
func TextContent(text string) Content {
	return Content{Text: text}
}

// PartsContent wraps an ordered part list
func PartsContent(parts ...ContentPart) Content {
	if parts == nil {
		parts = []ContentPart{}
	}
	return Content{Parts: parts}
}

// IsMultipart reports whether the content is in array form
func (c Content) IsMultipart() bool {
	return c.Parts != nil
}

// PlainText returns the text, joining text parts for array content
func (c Content) PlainText() string {
	if !c.IsMultipart() {
		return c.Text
	}
	var sb strings.Builder
	for _, p := range c.Parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// MarshalJSON implements json.Marshaler
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsMultipart() {
		return sonic.Marshal(c.Parts)
	}
	return sonic.Marshal(c.Text)
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("content: empty value")
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := sonic.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("content: %w", err)
		}
		*c = Content{Text: text}
	case '[':
		parts := []ContentPart{}
		if err := sonic.Unmarshal(trimmed, &parts); err != nil {
			return fmt.Errorf("content: %w", err)
		}
		*c = Content{Parts: parts}
	default:
		return fmt.Errorf("content: must be a string or an array of parts")
	}
	return nil
}

// ImageContent 用户附加的图片（base64）
type ImageContent struct {
	Type     string `json:"type"` // always "image"
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// NewImageContent builds an ImageContent from base64 data
func NewImageContent(data, mimeType string) ImageContent {
	return ImageContent{Type: "image", Data: data, MimeType: mimeType}
}

// DataURL renders the image as a data URL
func (i ImageContent) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MimeType, i.Data)
}

// Message 会话中的一条消息（客户端持有）
type Message struct {
	ID      string         `json:"id"`
	Role    Role           `json:"role"`
	Content Content        `json:"content"`
	Images  []ImageContent `json:"images,omitempty"` // UI display only
}

// ToRequest strips id and images
func (m Message) ToRequest() ChatRequestMessage {
	return ChatRequestMessage{Role: m.Role, Content: m.Content}
}

// ChatRequestMessage 发送给 relay 的消息格式
type ChatRequestMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// ChatRequest relay 请求体
type ChatRequest struct {
	Messages     []ChatRequestMessage `json:"messages"`
	SystemPrompt string               `json:"systemPrompt,omitempty"`
}

// HasMultipart reports whether any message carries array content
func (r *ChatRequest) HasMultipart() bool {
	for _, m := range r.Messages {
		if m.Content.IsMultipart() {
			return true
		}
	}
	return false
}

// LastMessage returns the final message, or false when empty
func (r *ChatRequest) LastMessage() (ChatRequestMessage, bool) {
	if len(r.Messages) == 0 {
		return ChatRequestMessage{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// ReplyMessage is the assistant message in a non-streaming reply
type ReplyMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResponse 非流式响应
type ChatResponse struct {
	Message ReplyMessage `json:"message"`
}

// StreamChunk 流式响应块
type StreamChunk struct {
	Text  string
	IsEnd bool
	Error string
}
