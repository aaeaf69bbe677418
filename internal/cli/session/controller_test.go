package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) HTTPStatus() int { return e.code }

// chunkReader returns one chunk per Read
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func (r *chunkReader) Close() error { return nil }

type fakeTransport struct {
	mu     sync.Mutex
	reqs   []*entity.ChatRequest
	handle func(ctx context.Context, n int) (io.ReadCloser, error)
}

func (f *fakeTransport) ChatStream(ctx context.Context, req *entity.ChatRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	n := len(f.reqs)
	f.mu.Unlock()
	return f.handle(ctx, n)
}

func (f *fakeTransport) request(i int) *entity.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[i]
}

func replyWith(chunks ...string) func(context.Context, int) (io.ReadCloser, error) {
	return func(context.Context, int) (io.ReadCloser, error) {
		r := &chunkReader{}
		for _, c := range chunks {
			r.chunks = append(r.chunks, []byte(c))
		}
		return r, nil
	}
}

func newTestController(t *testing.T, tr Transport, opts Options) *Controller {
	t.Helper()
	c := New(tr, opts)
	t.Cleanup(c.Dispose)
	return c
}

func waitTurn(t *testing.T, turn *Turn) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := turn.Wait(ctx)
	require.NoError(t, err, "turn did not settle")
	return out
}

func texts(history []entity.Message) []string {
	out := make([]string, len(history))
	for i, m := range history {
		out[i] = string(m.Role) + ":" + m.Content.PlainText()
	}
	return out
}

func TestSend_StreamsAndCommits(t *testing.T) {
	// "こんにちは" split in the middle of a rune
	raw := []byte("こんにちは, world")
	tr := &fakeTransport{handle: replyWith(string(raw[:4]), string(raw[4:11]), string(raw[11:]))}
	c := newTestController(t, tr, Options{})

	turn, err := c.Send("  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, waitTurn(t, turn))

	snap := c.Snapshot()
	assert.Equal(t, []string{"user:hello", "assistant:こんにちは, world"}, texts(snap.History))
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Streaming)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.NotEqual(t, snap.History[0].ID, snap.History[1].ID)
}

func TestSend_RejectsEmpty(t *testing.T) {
	c := newTestController(t, &fakeTransport{handle: replyWith("x")}, Options{})

	_, err := c.Send("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, c.Snapshot().History)
}

func TestSend_PayloadShape(t *testing.T) {
	tr := &fakeTransport{handle: replyWith("ok")}
	c := newTestController(t, tr, Options{SystemPrompt: "be brief"})

	img := entity.NewImageContent("QUJD", "image/png")

	turn, err := c.Send("first", nil)
	require.NoError(t, err)
	waitTurn(t, turn)

	turn, err = c.Send("look", []entity.ImageContent{img, img})
	require.NoError(t, err)
	waitTurn(t, turn)

	turn, err = c.Send("", []entity.ImageContent{img})
	require.NoError(t, err)
	waitTurn(t, turn)

	first := tr.request(0)
	require.Len(t, first.Messages, 1)
	assert.False(t, first.Messages[0].Content.IsMultipart())
	assert.Equal(t, "first", first.Messages[0].Content.Text)
	assert.Equal(t, "be brief", first.SystemPrompt)

	second := tr.request(1)
	require.Len(t, second.Messages, 3)
	parts := second.Messages[2].Content.Parts
	require.Len(t, parts, 3)
	assert.Equal(t, entity.PartTypeText, parts[0].Type)
	assert.Equal(t, "look", parts[0].Text)
	assert.Equal(t, "data:image/png;base64,QUJD", parts[1].ImageURL.URL)

	third := tr.request(2)
	require.Len(t, third.Messages, 5)
	parts = third.Messages[4].Content.Parts
	require.Len(t, parts, 1)
	assert.Equal(t, entity.PartTypeImageURL, parts[0].Type)

	// images stay on the local message only
	snap := c.Snapshot()
	assert.Len(t, snap.History[2].Images, 2)
}

func TestSend_EvictsOldest(t *testing.T) {
	tr := &fakeTransport{handle: func(_ context.Context, n int) (io.ReadCloser, error) {
		return replyWith(fmt.Sprintf("a%d", n))(nil, n)
	}}
	c := newTestController(t, tr, Options{MaxHistory: 4})

	for i := 1; i <= 3; i++ {
		turn, err := c.Send(fmt.Sprintf("q%d", i), nil)
		require.NoError(t, err)
		waitTurn(t, turn)
	}

	assert.Equal(t, []string{"user:q2", "assistant:a2", "user:q3", "assistant:a3"}, texts(c.Snapshot().History))
	// the third request was built after the first pair was evicted
	assert.Len(t, tr.request(2).Messages, 4)
}

func TestSend_SupersedesInFlight(t *testing.T) {
	firstBody, firstWriter := io.Pipe()
	tr := &fakeTransport{handle: func(_ context.Context, n int) (io.ReadCloser, error) {
		if n == 1 {
			return firstBody, nil
		}
		return replyWith("second answer")(nil, n)
	}}
	c := newTestController(t, tr, Options{})

	first, err := c.Send("one", nil)
	require.NoError(t, err)

	_, _ = firstWriter.Write([]byte("partial"))
	require.Eventually(t, func() bool { return c.Snapshot().Streaming == "partial" }, time.Second, 5*time.Millisecond)

	second, err := c.Send("two", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuperseded, waitTurn(t, first))
	assert.Equal(t, OutcomeCompleted, waitTurn(t, second))

	// late bytes from the first stream go nowhere
	go func() { _, _ = firstWriter.Write([]byte(" stale")) }()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"user:one", "user:two", "assistant:second answer"}, texts(c.Snapshot().History))
}

func TestSend_TimeoutAddsMessage(t *testing.T) {
	tr := &fakeTransport{handle: func(ctx context.Context, _ int) (io.ReadCloser, error) {
		<-ctx.Done()
		return nil, context.Cause(ctx)
	}}
	c := newTestController(t, tr, Options{Timeout: 20 * time.Millisecond})

	turn, err := c.Send("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, waitTurn(t, turn))
	assert.ErrorIs(t, context.Cause(turn.ctx), ErrTimeout)

	snap := c.Snapshot()
	assert.Equal(t, []string{"user:hello", "assistant:" + KindTimeout.Message()}, texts(snap.History))
	assert.False(t, snap.Loading)
	assert.Equal(t, KindTimeout.Message(), snap.Err)
}

func TestSend_TimeoutStopsOnceStreaming(t *testing.T) {
	body, w := io.Pipe()
	tr := &fakeTransport{handle: func(context.Context, int) (io.ReadCloser, error) { return body, nil }}
	c := newTestController(t, tr, Options{Timeout: 20 * time.Millisecond})

	turn, err := c.Send("hello", nil)
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte("slow "))
		time.Sleep(60 * time.Millisecond)
		_, _ = w.Write([]byte("reply"))
		_ = w.Close()
	}()

	assert.Equal(t, OutcomeCompleted, waitTurn(t, turn))
	assert.Equal(t, "assistant:slow reply", texts(c.Snapshot().History)[1])
}

func TestSend_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "validation", err: &statusErr{400}, want: KindValidation},
		{name: "rate limited", err: &statusErr{429}, want: KindRateLimit},
		{name: "server", err: &statusErr{500}, want: KindServer},
		{name: "unavailable", err: &statusErr{503}, want: KindServer},
		{name: "gateway timeout", err: &statusErr{504}, want: KindServer},
		{name: "other status", err: &statusErr{418}, want: KindUnknown},
		{name: "wrapped status", err: fmt.Errorf("chat: %w", &statusErr{429}), want: KindRateLimit},
		{name: "network", err: errors.New("connection refused"), want: KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{handle: func(context.Context, int) (io.ReadCloser, error) { return nil, tt.err }}
			c := newTestController(t, tr, Options{})

			turn, err := c.Send("hi", nil)
			require.NoError(t, err)
			assert.Equal(t, OutcomeFailed, waitTurn(t, turn))

			snap := c.Snapshot()
			require.Len(t, snap.History, 2)
			assert.Equal(t, tt.want.Message(), snap.History[1].Content.Text)
			assert.Equal(t, tt.want.Message(), snap.Err)
		})
	}
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "half an ans"), nil
	}
	return 0, errors.New("connection reset by peer")
}

func (r *failingReader) Close() error { return nil }

func TestSend_MidStreamFailureDiscardsPartial(t *testing.T) {
	tr := &fakeTransport{handle: func(context.Context, int) (io.ReadCloser, error) { return &failingReader{}, nil }}
	c := newTestController(t, tr, Options{})

	turn, err := c.Send("hi", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, waitTurn(t, turn))
	assert.Equal(t, []string{"user:hi", "assistant:" + KindNetwork.Message()}, texts(c.Snapshot().History))
}

func TestCancel_IsSilent(t *testing.T) {
	body, w := io.Pipe()
	defer w.Close()
	tr := &fakeTransport{handle: func(context.Context, int) (io.ReadCloser, error) { return body, nil }}
	c := newTestController(t, tr, Options{})

	turn, err := c.Send("hi", nil)
	require.NoError(t, err)
	_, _ = w.Write([]byte("so far"))

	c.Cancel()
	assert.Equal(t, OutcomeCancelled, waitTurn(t, turn))

	snap := c.Snapshot()
	assert.Equal(t, []string{"user:hi"}, texts(snap.History))
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Streaming)
	assert.Empty(t, snap.Err)
}

func TestDispose_AbortsSilently(t *testing.T) {
	body, w := io.Pipe()
	defer w.Close()
	tr := &fakeTransport{handle: func(context.Context, int) (io.ReadCloser, error) { return body, nil }}
	c := New(tr, Options{})

	var mu sync.Mutex
	var seen []Snapshot
	c.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	turn, err := c.Send("hi", nil)
	require.NoError(t, err)

	c.Dispose()
	assert.Equal(t, OutcomeDisposed, waitTurn(t, turn))
	assert.ErrorIs(t, context.Cause(turn.ctx), ErrDisposed)

	_, err = c.Send("again", nil)
	assert.ErrorIs(t, err, ErrDisposed)

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for _, s := range seen {
		assert.Len(t, s.History, 1, "no message may be added after dispose")
	}
	assert.Equal(t, []string{"user:hi"}, texts(c.Snapshot().History))
}

func TestClear(t *testing.T) {
	c := newTestController(t, &fakeTransport{handle: replyWith("answer")}, Options{})

	turn, err := c.Send("hi", nil)
	require.NoError(t, err)
	waitTurn(t, turn)
	require.Len(t, c.Snapshot().History, 2)

	c.Clear()
	snap := c.Snapshot()
	assert.Empty(t, snap.History)
	assert.Empty(t, snap.Streaming)
}

func TestSystemPrompt(t *testing.T) {
	tr := &fakeTransport{handle: replyWith("ok")}
	c := newTestController(t, tr, Options{SystemPrompt: "custom", DefaultSystemPrompt: "default"})

	c.ResetSystemPrompt()
	assert.Equal(t, "default", c.Snapshot().SystemPrompt)

	c.SetSystemPrompt("pirate")
	turn, err := c.Send("hi", nil)
	require.NoError(t, err)
	waitTurn(t, turn)
	assert.Equal(t, "pirate", tr.request(0).SystemPrompt)
}

func TestSubscribe_DeliversInOrder(t *testing.T) {
	c := newTestController(t, &fakeTransport{handle: replyWith("a", "b")}, Options{})

	var mu sync.Mutex
	var phases []Phase
	var streamed []string
	c.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if n := len(phases); n == 0 || phases[n-1] != s.Phase {
			phases = append(phases, s.Phase)
		}
		if s.Streaming != "" {
			streamed = append(streamed, s.Streaming)
		}
	})

	turn, err := c.Send("hi", nil)
	require.NoError(t, err)
	waitTurn(t, turn)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(phases) > 0 && phases[len(phases)-1] == PhaseIdle
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseSending, PhaseStreaming, PhaseCompleted, PhaseIdle}, phases)
	assert.Equal(t, []string{"a", "ab"}, streamed)
}

func TestDecoder_KeepsSplitRunes(t *testing.T) {
	raw := []byte("añ日本🙂")
	var d streamDecoder
	var out strings.Builder
	for _, b := range raw {
		out.WriteString(d.Decode([]byte{b}))
	}
	out.WriteString(d.Flush())
	assert.Equal(t, "añ日本🙂", out.String())
}

func TestDecoder_FlushReplacesTruncated(t *testing.T) {
	var d streamDecoder
	assert.Equal(t, "ok", d.Decode([]byte{'o', 'k', 0xE6, 0x97}))
	assert.Equal(t, "�", d.Flush())
	assert.Empty(t, d.Flush())
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, KindValidation, KindForStatus(400))
	assert.Equal(t, KindRateLimit, KindForStatus(429))
	assert.Equal(t, KindServer, KindForStatus(502))
	assert.Equal(t, KindUnknown, KindForStatus(404))
	assert.Equal(t, errorMessages[KindUnknown], ErrorKind(99).Message())
}
