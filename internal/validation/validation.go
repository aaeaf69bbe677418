// Package validation checks chat requests against the configured bounds
// before anything is sent upstream.
package validation

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nobita2041/ai-chatbot/internal/config"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// SupportedImageTypes 支持的图片 MIME 类型
var SupportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Limits 校验边界
type Limits struct {
	MessagesMaxCount        int
	MessageContentMaxLength int
	SystemPromptMaxLength   int
	ImageMaxBytes           int64
}

// DefaultLimits mirrors the reference deployment
func DefaultLimits() Limits {
	return Limits{
		MessagesMaxCount:        50,
		MessageContentMaxLength: 10000,
		SystemPromptMaxLength:   5000,
		ImageMaxBytes:           5 * 1024 * 1024,
	}
}

// LimitsFromConfig converts the config section
func LimitsFromConfig(cfg config.LimitsConfig) Limits {
	return Limits{
		MessagesMaxCount:        cfg.MessagesMaxCount,
		MessageContentMaxLength: cfg.MessageContentMaxLength,
		SystemPromptMaxLength:   cfg.SystemPromptMaxLength,
		ImageMaxBytes:           cfg.ImageMaxBytes,
	}
}

// Validator 请求校验器
type Validator struct {
	limits Limits
}

// New creates a Validator
func New(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Limits returns the configured bounds
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate returns every violation in req, in field order.
// An empty result means the request may be forwarded.
func (v *Validator) Validate(req *entity.ChatRequest) []string {
	if req == nil {
		return []string{"request body is required"}
	}

	var errs []string

	switch n := len(req.Messages); {
	case n == 0:
		errs = append(errs, "messages must contain at least 1 entry")
	case n > v.limits.MessagesMaxCount:
		errs = append(errs, fmt.Sprintf("messages must contain at most %d entries", v.limits.MessagesMaxCount))
	}

	for i, m := range req.Messages {
		errs = append(errs, v.validateMessage(i, m)...)
	}

	if utf8.RuneCountInString(req.SystemPrompt) > v.limits.SystemPromptMaxLength {
		errs = append(errs, fmt.Sprintf("systemPrompt must be at most %d characters", v.limits.SystemPromptMaxLength))
	}

	return errs
}

func (v *Validator) validateMessage(i int, m entity.ChatRequestMessage) []string {
	var errs []string

	if !m.Role.Valid() {
		errs = append(errs, fmt.Sprintf("messages[%d].role must be one of user, assistant, system", i))
	}

	if !m.Content.IsMultipart() {
		errs = append(errs, v.validateText(i, m.Content.Text)...)
		return errs
	}

	if len(m.Content.Parts) == 0 {
		return append(errs, fmt.Sprintf("messages[%d].content must not be empty", i))
	}

	// 已报告未知 part 时不再追加 "must not be empty"
	hasImage, hasUnknown := false, false
	for j, p := range m.Content.Parts {
		switch p.Type {
		case entity.PartTypeText:
		case entity.PartTypeImageURL:
			hasImage = true
			if err := v.validateImageURL(p.ImageURL); err != "" {
				errs = append(errs, fmt.Sprintf("messages[%d].content[%d]: %s", i, j, err))
			}
		default:
			hasUnknown = true
			errs = append(errs, fmt.Sprintf("messages[%d].content[%d].type must be text or image_url", i, j))
		}
	}

	text := m.Content.PlainText()
	if (hasImage || hasUnknown) && text == "" {
		return errs
	}
	return append(errs, v.validateText(i, text)...)
}

func (v *Validator) validateText(i int, text string) []string {
	n := utf8.RuneCountInString(text)
	if n < 1 {
		return []string{fmt.Sprintf("messages[%d].content must not be empty", i)}
	}
	if n > v.limits.MessageContentMaxLength {
		return []string{fmt.Sprintf("messages[%d].content must be at most %d characters", i, v.limits.MessageContentMaxLength)}
	}
	return nil
}

func (v *Validator) validateImageURL(img *entity.ImageURL) string {
	if img == nil || img.URL == "" {
		return "image_url.url is required"
	}

	mimeType, data, ok := ParseDataURL(img.URL)
	if !ok {
		return "image_url.url must be a base64 data URL"
	}
	if !SupportedImageTypes[mimeType] {
		return fmt.Sprintf("unsupported image type %q", mimeType)
	}
	if decodedSize(data) > v.limits.ImageMaxBytes {
		return fmt.Sprintf("image must be at most %d bytes", v.limits.ImageMaxBytes)
	}
	return ""
}

// ValidateImage checks an attachment before it is folded into a message
func (v *Validator) ValidateImage(img entity.ImageContent) error {
	if !SupportedImageTypes[img.MimeType] {
		return fmt.Errorf("unsupported image type %q", img.MimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return fmt.Errorf("image data is not valid base64: %w", err)
	}
	if int64(len(raw)) > v.limits.ImageMaxBytes {
		return fmt.Errorf("image is %d bytes, at most %d allowed", len(raw), v.limits.ImageMaxBytes)
	}
	return nil
}

// decodedSize is the byte length of padded base64 data without decoding it
func decodedSize(data string) int64 {
	n := int64(base64.StdEncoding.DecodedLen(len(data)))
	return n - int64(len(data)-len(strings.TrimRight(data, "=")))
}

// ParseDataURL splits "data:<mime>;base64,<data>"
func ParseDataURL(u string) (mimeType, data string, ok bool) {
	rest, found := strings.CutPrefix(u, "data:")
	if !found {
		return "", "", false
	}
	meta, data, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mimeType, found = strings.CutSuffix(meta, ";base64")
	if !found || mimeType == "" {
		return "", "", false
	}
	return mimeType, data, true
}
