package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	errs "github.com/cloudwego/hertz/pkg/common/errors"
	"github.com/cloudwego/hertz/pkg/network"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/handler/dto"
)

// StatusError is returned for any non-2xx relay response
type StatusError struct {
	StatusCode int
	Body       dto.ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Body.Error != "" {
		return fmt.Sprintf("relay returned HTTP %d: %s", e.StatusCode, e.Body.Error)
	}
	return fmt.Sprintf("relay returned HTTP %d", e.StatusCode)
}

// HTTPStatus 返回 HTTP 状态码
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status}
	// best effort: 429 and 5xx bodies may not be the JSON envelope
	_ = sonic.Unmarshal(body, &se.Body)
	return se
}

// APIClient talks to the relay. Every request gets its own connection so
// an abandoned request can be torn down without touching other calls.
type APIClient struct {
	server      string
	dialTimeout time.Duration
}

// NewAPIClient creates a new API client
func NewAPIClient(server string) (*APIClient, error) {
	normalizedServer, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	return &APIClient{
		server:      normalizedServer,
		dialTimeout: 10 * time.Second,
	}, nil
}

// Server returns the normalized base URL
func (c *APIClient) Server() string {
	return c.server
}

// normalizeServerURL normalizes server URL to ensure it has a scheme and no trailing slash
func normalizeServerURL(server string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL")
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// call is a single request with the connection it dialed
type call struct {
	client *client.Client
	dialer *trackingDialer
}

func (c *APIClient) newCall() (*call, error) {
	// Use standard library dialer for streaming support
	// netpoll doesn't support streaming well, causing panics
	d := &trackingDialer{Dialer: standard.NewDialer()}
	hc, err := client.NewClient(
		client.WithDialTimeout(c.dialTimeout),
		client.WithKeepAlive(false),
		client.WithResponseBodyStream(true),
		client.WithDialer(d),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return &call{client: hc, dialer: d}, nil
}

// do runs the request and returns as soon as ctx ends. Hertz Do does not
// watch ctx, so an abandoned request has its connection closed, which makes
// Do return and tells the relay to stop writing.
func (k *call) do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error {
	req.SetConnectionClose()

	done := make(chan error, 1)
	go func() { done <- k.client.Do(ctx, req, resp) }()

	select {
	case err := <-done:
		if err != nil {
			k.dialer.abort()
			return fmt.Errorf("request failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		k.dialer.abort()
		go func() {
			<-done
			_ = resp.CloseBodyStream()
		}()
		return context.Cause(ctx)
	}
}

// release drops the connection after a fully read response
func (k *call) release(resp *protocol.Response) {
	k.dialer.abort()
	_ = resp.CloseBodyStream()
}

// trackingDialer remembers the connection it dialed so abort can close it
// from any goroutine. net.Conn.Close is safe to call during a Read.
type trackingDialer struct {
	network.Dialer

	mu      sync.Mutex
	conn    network.Conn
	aborted bool
}

func (d *trackingDialer) DialConnection(n, address string, timeout time.Duration, tlsConfig *tls.Config) (network.Conn, error) {
	conn, err := d.Dialer.DialConnection(n, address, timeout, tlsConfig)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aborted {
		_ = conn.Close()
		return nil, errs.ErrConnectionClosed
	}
	d.conn = conn
	return conn, nil
}

func (d *trackingDialer) abort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aborted = true
	if d.conn != nil {
		_ = d.conn.Close()
	}
}

// ChatStream posts the conversation to /api/chat and returns the raw
// reply body. The caller must Close it from the goroutine that reads it;
// Abort may be called from anywhere to unblock a pending Read.
func (c *APIClient) ChatStream(ctx context.Context, chatReq *entity.ChatRequest) (io.ReadCloser, error) {
	bodyBytes, err := sonic.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	k, err := c.newCall()
	if err != nil {
		return nil, err
	}

	// not pooled: the response outlives this call
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointChat)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Accept", "text/plain")
	req.SetBody(bodyBytes)

	if err := k.do(ctx, req, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode() != consts.StatusOK {
		se := newStatusError(resp.StatusCode(), resp.Body())
		k.release(resp)
		return nil, se
	}

	stream := resp.BodyStream()
	if stream == nil {
		body := append([]byte(nil), resp.Body()...)
		k.release(resp)
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return &bodyStream{call: k, resp: resp, stream: stream}, nil
}

// bodyStream adapts a streamed Hertz response to io.ReadCloser
type bodyStream struct {
	call   *call
	resp   *protocol.Response
	stream io.Reader
	once   sync.Once
}

func (b *bodyStream) Read(p []byte) (int, error) {
	return b.stream.Read(p)
}

// Abort closes the connection so a pending Read returns. Safe to call
// concurrently with Read.
func (b *bodyStream) Abort() {
	b.call.dialer.abort()
}

// Close never drains the rest of the reply: the connection is closed
// first, then the Hertz stream is released.
func (b *bodyStream) Close() error {
	b.once.Do(func() {
		b.call.release(b.resp)
	})
	return nil
}

// ChatSimple posts to /api/chat/simple and returns the complete reply
func (c *APIClient) ChatSimple(ctx context.Context, chatReq *entity.ChatRequest) (*entity.ChatResponse, error) {
	bodyBytes, err := sonic.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	k, err := c.newCall()
	if err != nil {
		return nil, err
	}

	// not pooled: an abandoned Do may still be writing into them
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointChatSimple)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(bodyBytes)

	if err := k.do(ctx, req, resp); err != nil {
		return nil, err
	}
	body := resp.Body()
	k.release(resp)

	if resp.StatusCode() != consts.StatusOK {
		return nil, newStatusError(resp.StatusCode(), body)
	}

	var chatResp entity.ChatResponse
	if err := sonic.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &chatResp, nil
}

// Health calls /api/health, or /api/health/detailed when detailed is set.
// A 503 from the detailed check is returned as a result, not an error.
func (c *APIClient) Health(ctx context.Context, detailed bool) (*entity.HealthCheckResponse, int, error) {
	endpoint := endpointHealth
	if detailed {
		endpoint = endpointHealthDetailed
	}

	k, err := c.newCall()
	if err != nil {
		return nil, 0, err
	}

	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.server + endpoint)

	if err := k.do(ctx, req, resp); err != nil {
		return nil, 0, err
	}
	body := resp.Body()
	k.release(resp)

	status := resp.StatusCode()
	if status != consts.StatusOK && status != consts.StatusServiceUnavailable {
		return nil, status, newStatusError(status, body)
	}

	var health entity.HealthCheckResponse
	if err := sonic.Unmarshal(body, &health); err != nil {
		return nil, status, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &health, status, nil
}
