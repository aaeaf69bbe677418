// Package attachment turns local image files into message attachments
package attachment

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

// sniffLen is how many bytes content sniffing looks at
const sniffLen = 512

// Attachment is a loaded image ready to send
type Attachment struct {
	Name  string
	Size  int64
	Image entity.ImageContent
}

// Loader reads and checks image files
type Loader struct {
	validator *validation.Validator
}

// NewLoader creates a Loader bounded by limits
func NewLoader(limits validation.Limits) *Loader {
	return &Loader{validator: validation.New(limits)}
}

// Load reads path, detects its type from content and base64-encodes it
func (l *Loader) Load(path string) (*Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	max := l.validator.Limits().ImageMaxBytes
	if info.Size() > max {
		return nil, fmt.Errorf("%s is %d bytes, at most %d allowed", filepath.Base(path), info.Size(), max)
	}

	// +1 catches files that grew after Stat
	raw, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return l.FromBytes(filepath.Base(path), raw)
}

// FromBytes builds an attachment from raw image bytes
func (l *Loader) FromBytes(name string, raw []byte) (*Attachment, error) {
	head := raw
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mimeType := http.DetectContentType(head)

	img := entity.NewImageContent(base64.StdEncoding.EncodeToString(raw), mimeType)
	if err := l.validator.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Attachment{Name: name, Size: int64(len(raw)), Image: img}, nil
}
