package llm

import (
	"github.com/cloudwego/eino/schema"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

// toSchemaMessages converts request messages, keeping array content as
// multi-part input.
func toSchemaMessages(msgs []entity.ChatRequestMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toSchemaMessage(m))
	}
	return out
}

func toSchemaMessage(m entity.ChatRequestMessage) *schema.Message {
	msg := &schema.Message{Role: schema.RoleType(m.Role)}
	if !m.Content.IsMultipart() {
		msg.Content = m.Content.Text
		return msg
	}

	parts := make([]schema.ChatMessagePart, 0, len(m.Content.Parts))
	for _, p := range m.Content.Parts {
		switch p.Type {
		case entity.PartTypeText:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: p.Text,
			})
		case entity.PartTypeImageURL:
			if p.ImageURL == nil {
				continue
			}
			img := &schema.ChatMessageImageURL{URL: p.ImageURL.URL}
			if mimeType, _, ok := validation.ParseDataURL(p.ImageURL.URL); ok {
				img.MIMEType = mimeType
			}
			parts = append(parts, schema.ChatMessagePart{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: img,
			})
		}
	}
	msg.MultiContent = parts
	return msg
}
