package llm

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobita2041/ai-chatbot/internal/config"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

func collect(t *testing.T, ch <-chan entity.StreamChunk) (string, []entity.StreamChunk) {
	t.Helper()
	var sb strings.Builder
	var chunks []entity.StreamChunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return sb.String(), chunks
			}
			sb.WriteString(c.Text)
			chunks = append(chunks, c)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestToSchemaMessages(t *testing.T) {
	msgs := toSchemaMessages([]entity.ChatRequestMessage{
		{Role: entity.RoleSystem, Content: entity.TextContent("be brief")},
		{Role: entity.RoleUser, Content: entity.PartsContent(
			entity.TextPart("what is this?"),
			entity.ImagePart("data:image/jpeg;base64,/9j/"),
		)},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "be brief", msgs[0].Content)

	require.Len(t, msgs[1].MultiContent, 2)
	assert.Equal(t, schema.ChatMessagePartTypeText, msgs[1].MultiContent[0].Type)
	assert.Equal(t, "what is this?", msgs[1].MultiContent[0].Text)
	img := msgs[1].MultiContent[1].ImageURL
	require.NotNil(t, img)
	assert.Equal(t, "data:image/jpeg;base64,/9j/", img.URL)
	assert.Equal(t, "image/jpeg", img.MIMEType)
}

func TestCompletionModel_Stream(t *testing.T) {
	fm := &fakeModel{chunks: []string{"Hel", "lo"}}
	cm := NewCompletionModel(fm, slog.Default())

	ch, err := cm.StreamCompletion(context.Background(), []entity.ChatRequestMessage{
		{Role: entity.RoleUser, Content: entity.TextContent("hi")},
	})
	require.NoError(t, err)

	text, chunks := collect(t, ch)
	assert.Equal(t, "Hello", text)
	assert.True(t, chunks[len(chunks)-1].IsEnd)
	assert.Empty(t, chunks[len(chunks)-1].Error)
}

func TestCompletionModel_MidStreamError(t *testing.T) {
	fm := &fakeModel{chunks: []string{"partial"}, midErr: errUpstream}
	cm := NewCompletionModel(fm, slog.Default())

	ch, err := cm.StreamCompletion(context.Background(), nil)
	require.NoError(t, err)

	text, chunks := collect(t, ch)
	assert.Equal(t, "partial", text)
	last := chunks[len(chunks)-1]
	assert.Contains(t, last.Error, "upstream exploded")
}

func TestCompletionModel_StartError(t *testing.T) {
	cm := NewCompletionModel(&fakeModel{streamErr: errUpstream}, slog.Default())

	_, err := cm.StreamCompletion(context.Background(), nil)
	assert.ErrorIs(t, err, errUpstream)
}

func TestCompletionModel_Complete(t *testing.T) {
	fm := &fakeModel{reply: "done"}
	cm := NewCompletionModel(fm, slog.Default())

	got, err := cm.Complete(context.Background(), []entity.ChatRequestMessage{
		{Role: entity.RoleUser, Content: entity.TextContent("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	_, err = NewCompletionModel(&fakeModel{genErr: errUpstream}, slog.Default()).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, errUpstream)
}

func TestCompletionModel_StopsWhenConsumerLeaves(t *testing.T) {
	chunks := make([]string, 500)
	for i := range chunks {
		chunks[i] = "x"
	}
	cm := NewCompletionModel(&fakeModel{chunks: chunks}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := cm.StreamCompletion(ctx, nil)
	require.NoError(t, err)

	<-ch
	cancel()

	// the producer closes the channel instead of blocking forever
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer leaked")
	}
}

func TestAgent_StreamUsesPromptAndInput(t *testing.T) {
	fm := &fakeModel{chunks: []string{"4", "2"}}
	factory := NewAgentFactory(fm, "default prompt", slog.Default())

	a, err := factory.NewAgent(context.Background(), "")
	require.NoError(t, err)

	ch, err := a.Stream(context.Background(), "meaning of life?")
	require.NoError(t, err)

	text, chunks := collect(t, ch)
	assert.Equal(t, "42", text)
	assert.True(t, chunks[len(chunks)-1].IsEnd)

	input := fm.lastInput()
	require.Len(t, input, 2)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Equal(t, "default prompt", input[0].Content)
	assert.Equal(t, schema.User, input[1].Role)
	assert.Equal(t, "meaning of life?", input[1].Content)
}

func TestAgent_CustomPrompt(t *testing.T) {
	fm := &fakeModel{reply: "arr"}
	factory := NewAgentFactory(fm, "default prompt", slog.Default())

	a, err := factory.NewAgent(context.Background(), "talk like a pirate")
	require.NoError(t, err)

	got, err := a.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "arr", got)
	assert.Equal(t, "talk like a pirate", fm.lastInput()[0].Content)
}

func TestAgent_StreamError(t *testing.T) {
	fm := &fakeModel{streamErr: errUpstream}
	a, err := NewAgentFactory(fm, "p", slog.Default()).NewAgent(context.Background(), "")
	require.NoError(t, err)

	ch, err := a.Stream(context.Background(), "hi")
	require.NoError(t, err)

	_, chunks := collect(t, ch)
	require.NotEmpty(t, chunks)
	assert.NotEmpty(t, chunks[len(chunks)-1].Error)
}

func TestProbe(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewProber(config.UpstreamConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", ProbeTimeout: time.Second})
	assert.True(t, p.HasCredential())
	assert.NoError(t, p.Probe(context.Background()))

	status.Store(http.StatusUnauthorized)
	err := p.Probe(context.Background())
	require.Error(t, err)
	assert.Equal(t, "API returned 401", err.Error())

	assert.False(t, NewProber(config.UpstreamConfig{}).HasCredential())
}
