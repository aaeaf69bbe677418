package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nobita2041/ai-chatbot/internal/config"
	"github.com/nobita2041/ai-chatbot/internal/domain"
)

// prober 通过列出模型检查上游连通性
type prober struct {
	client  openai.Client
	hasKey  bool
	timeout time.Duration
}

// NewProber creates an UpstreamProber for the configured service
func NewProber(cfg config.UpstreamConfig) domain.UpstreamProber {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &prober{
		client:  openai.NewClient(opts...),
		hasKey:  cfg.APIKey != "",
		timeout: timeout,
	}
}

// HasCredential implements domain.UpstreamProber
func (p *prober) HasCredential() bool {
	return p.hasKey
}

// Probe implements domain.UpstreamProber
func (p *prober) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.client.Models.List(ctx); err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("API returned %d", apiErr.StatusCode)
		}
		return err
	}
	return nil
}
