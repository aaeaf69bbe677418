// Package session owns one conversation on the client side: the message
// history, the single in-flight request and the incremental assistant text.
//
// 同一时刻最多只有一个请求有效。新的 Send 会取代旧请求，被取代、取消或
// Dispose 的请求不会再修改任何可见状态。
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

const (
	// DefaultTimeout bounds the wait for response headers
	DefaultTimeout = 30 * time.Second
	// DefaultMaxHistory 历史消息上限，超出后丢弃最旧的
	DefaultMaxHistory = 100

	readBufferSize = 4096
)

// Transport opens a streaming chat request against the relay.
// The returned body yields raw UTF-8 bytes of the assistant reply.
// Errors for non-2xx responses should implement HTTPStatus() int.
//
// The body is read and closed by a single goroutine. A body that also
// implements Aborter is aborted from another goroutine when the turn is
// abandoned, so the pending Read returns and the connection is dropped.
type Transport interface {
	ChatStream(ctx context.Context, req *entity.ChatRequest) (io.ReadCloser, error)
}

// Aborter unblocks a pending Read; it must be safe to call concurrently with it
type Aborter interface {
	Abort()
}

// Phase 请求生命周期阶段
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSending   Phase = "sending"
	PhaseStreaming Phase = "streaming"
	PhaseCompleted Phase = "completed"
	PhaseCancelled Phase = "cancelled"
	PhaseTimedOut  Phase = "timed_out"
	PhaseFailed    Phase = "failed"
)

// Outcome is how a turn ended
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeCompleted  Outcome = "completed"
	OutcomeFailed     Outcome = "failed"
	OutcomeTimedOut   Outcome = "timed_out"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeDisposed   Outcome = "disposed"
)

// Options 控制器配置
type Options struct {
	Timeout             time.Duration
	MaxHistory          int
	SystemPrompt        string
	DefaultSystemPrompt string
	NewID               func() string
	Logger              *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = DefaultMaxHistory
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Snapshot is a copy of the observable state
type Snapshot struct {
	History      []entity.Message
	Streaming    string
	Loading      bool
	Phase        Phase
	SystemPrompt string
	// Err is the user-facing text of the last failure, if the last turn failed
	Err string
}

// Turn is the handle of one Send
type Turn struct {
	ID string

	ctx     context.Context
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	done    chan struct{}
	outcome Outcome
}

// Done is closed once the turn has settled
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Outcome returns OutcomePending until Done is closed
func (t *Turn) Outcome() Outcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return OutcomePending
	}
}

// Wait blocks until the turn settles or ctx ends
func (t *Turn) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Controller 会话控制器
type Controller struct {
	transport Transport
	opts      Options
	logger    *slog.Logger

	mu           sync.Mutex
	history      []entity.Message
	systemPrompt string
	streaming    string
	loading      bool
	phase        Phase
	lastErr      string
	current      *Turn
	disposed     bool

	subs    map[int]func(Snapshot)
	nextSub int
	queue   []Snapshot
	wake    chan struct{}
	stopped chan struct{}
}

// New creates a Controller and starts its observer dispatcher.
// Call Dispose when done with it.
func New(transport Transport, opts Options) *Controller {
	opts.setDefaults()
	c := &Controller{
		transport:    transport,
		opts:         opts,
		logger:       opts.Logger.With("component", "session"),
		systemPrompt: opts.SystemPrompt,
		phase:        PhaseIdle,
		subs:         make(map[int]func(Snapshot)),
		wake:         make(chan struct{}, 1),
		stopped:      make(chan struct{}),
	}
	go c.dispatch()
	return c
}

// Send appends a user message and starts streaming the reply.
// Any request still in flight is superseded.
func (c *Controller) Send(text string, images []entity.ImageContent) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(images) == 0 {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return nil, ErrDisposed
	}
	if prev := c.current; prev != nil {
		c.settleLocked(prev, OutcomeSuperseded, nil)
	}

	user := entity.Message{
		ID:      c.opts.NewID(),
		Role:    entity.RoleUser,
		Content: BuildContent(text, images),
		Images:  images,
	}
	c.appendLocked(user)

	req := &entity.ChatRequest{
		Messages:     make([]entity.ChatRequestMessage, len(c.history)),
		SystemPrompt: c.systemPrompt,
	}
	for i, m := range c.history {
		req.Messages[i] = m.ToRequest()
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	turn := &Turn{
		ID:     user.ID,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	turn.timer = time.AfterFunc(c.opts.Timeout, func() { c.expire(turn) })

	c.current = turn
	c.loading = true
	c.streaming = ""
	c.lastErr = ""
	c.phase = PhaseSending
	c.publishLocked()

	go c.run(turn, req)
	return turn, nil
}

// Cancel stops the in-flight request without adding any message
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.settleLocked(c.current, OutcomeCancelled, nil)
	}
}

// Clear empties the history, cancelling any in-flight request
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.settleLocked(c.current, OutcomeCancelled, nil)
	}
	c.history = nil
	c.streaming = ""
	c.lastErr = ""
	c.publishLocked()
}

// Dispose tears the controller down. The in-flight request, if any,
// is aborted silently and observers receive no further updates.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if c.current != nil {
		c.settleLocked(c.current, OutcomeDisposed, nil)
	}
	c.disposed = true
	c.queue = nil
	close(c.stopped)
	c.mu.Unlock()
}

// SetSystemPrompt overrides the prompt sent with later requests
func (c *Controller) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemPrompt = prompt
	c.publishLocked()
}

// ResetSystemPrompt restores the default prompt
func (c *Controller) ResetSystemPrompt() {
	c.SetSystemPrompt(c.opts.DefaultSystemPrompt)
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive every state change, in order, from a
// single dispatcher goroutine. The returned func unregisters it.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// run performs the request for turn. Every state change goes through a
// check that turn is still current.
func (c *Controller) run(turn *Turn, req *entity.ChatRequest) {
	body, err := c.transport.ChatStream(turn.ctx, req)
	turn.timer.Stop()
	if err != nil {
		if turn.ctx.Err() != nil {
			return
		}
		kind := classify(err)
		c.logger.Warn("chat request failed", "turn", turn.ID, "kind", kind, "error", err)
		c.fail(turn, kind)
		return
	}

	// pump owns body from here on, Close included
	reads := pump(turn.ctx, body)
	if a, ok := body.(Aborter); ok {
		stop := context.AfterFunc(turn.ctx, a.Abort)
		defer stop()
	}

	if !c.markStreaming(turn) {
		return
	}

	var (
		dec streamDecoder
		acc strings.Builder
	)
	for {
		select {
		case <-turn.ctx.Done():
			return
		case r := <-reads:
			if r.err != nil && !errors.Is(r.err, io.EOF) {
				if turn.ctx.Err() != nil {
					return
				}
				c.logger.Warn("chat stream interrupted", "turn", turn.ID, "error", r.err)
				c.fail(turn, KindNetwork)
				return
			}

			if text := dec.Decode(r.data); text != "" {
				acc.WriteString(text)
				if !c.update(turn, acc.String()) {
					return
				}
			}

			if r.err != nil {
				acc.WriteString(dec.Flush())
				c.complete(turn, acc.String())
				return
			}
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

// pump reads body sequentially and hands each chunk over until an error
// (io.EOF included) or until ctx ends, then closes body.
func pump(ctx context.Context, body io.ReadCloser) <-chan readResult {
	out := make(chan readResult)
	go func() {
		defer body.Close()
		buf := make([]byte, readBufferSize)
		for {
			n, err := body.Read(buf)
			r := readResult{data: append([]byte(nil), buf[:n]...), err: err}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func (c *Controller) expire(turn *Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != turn {
		return
	}
	c.logger.Warn("chat request timed out", "turn", turn.ID, "timeout", c.opts.Timeout)
	msg := c.assistantMessage(KindTimeout.Message())
	c.settleLocked(turn, OutcomeTimedOut, &msg)
}

func (c *Controller) markStreaming(turn *Turn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != turn {
		return false
	}
	c.phase = PhaseStreaming
	c.publishLocked()
	return true
}

func (c *Controller) update(turn *Turn, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != turn {
		return false
	}
	c.streaming = text
	c.publishLocked()
	return true
}

func (c *Controller) complete(turn *Turn, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != turn {
		return
	}
	msg := c.assistantMessage(text)
	c.settleLocked(turn, OutcomeCompleted, &msg)
}

func (c *Controller) fail(turn *Turn, kind ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != turn {
		return
	}
	msg := c.assistantMessage(kind.Message())
	c.settleLocked(turn, OutcomeFailed, &msg)
}

func (c *Controller) assistantMessage(text string) entity.Message {
	return entity.Message{
		ID:      c.opts.NewID(),
		Role:    entity.RoleAssistant,
		Content: entity.TextContent(text),
	}
}

// settleLocked ends turn with outcome and, when msg is non-nil, appends it.
// Must be called with c.mu held.
func (c *Controller) settleLocked(turn *Turn, outcome Outcome, msg *entity.Message) {
	turn.timer.Stop()
	turn.cancel(causeFor(outcome))
	turn.outcome = outcome
	close(turn.done)

	if c.current == turn {
		c.current = nil
	}
	c.loading = false
	c.streaming = ""
	if msg != nil {
		c.appendLocked(*msg)
	}

	switch outcome {
	case OutcomeDisposed, OutcomeSuperseded:
		// Superseded: the next Send publishes; disposed: nothing more is published
		return
	case OutcomeCompleted:
		c.phase = PhaseCompleted
	case OutcomeCancelled:
		c.phase = PhaseCancelled
	case OutcomeTimedOut:
		c.phase = PhaseTimedOut
		c.lastErr = msg.Content.Text
	case OutcomeFailed:
		c.phase = PhaseFailed
		c.lastErr = msg.Content.Text
	}
	c.publishLocked()
	c.phase = PhaseIdle
	c.publishLocked()
}

func causeFor(outcome Outcome) error {
	switch outcome {
	case OutcomeSuperseded:
		return ErrSuperseded
	case OutcomeDisposed:
		return ErrDisposed
	case OutcomeTimedOut:
		return ErrTimeout
	case OutcomeCancelled:
		return ErrCancelled
	default:
		return context.Canceled
	}
}

// appendLocked adds m and evicts the oldest entries beyond MaxHistory
func (c *Controller) appendLocked(m entity.Message) {
	c.history = append(c.history, m)
	if over := len(c.history) - c.opts.MaxHistory; over > 0 {
		c.history = append([]entity.Message(nil), c.history[over:]...)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		History:      append([]entity.Message(nil), c.history...),
		Streaming:    c.streaming,
		Loading:      c.loading,
		Phase:        c.phase,
		SystemPrompt: c.systemPrompt,
		Err:          c.lastErr,
	}
}

func (c *Controller) publishLocked() {
	if c.disposed || len(c.subs) == 0 {
		return
	}
	c.queue = append(c.queue, c.snapshotLocked())
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// dispatch delivers queued snapshots to subscribers in publish order
func (c *Controller) dispatch() {
	for {
		select {
		case <-c.stopped:
			return
		case <-c.wake:
		}

		c.mu.Lock()
		batch := c.queue
		c.queue = nil
		subs := make([]func(Snapshot), 0, len(c.subs))
		for i := 0; i < c.nextSub; i++ {
			if fn, ok := c.subs[i]; ok {
				subs = append(subs, fn)
			}
		}
		c.mu.Unlock()

		for _, s := range batch {
			select {
			case <-c.stopped:
				return
			default:
			}
			for _, fn := range subs {
				fn(s)
			}
		}
	}
}

// BuildContent returns plain text without images, otherwise the parts
// array with the text part first when present.
func BuildContent(text string, images []entity.ImageContent) entity.Content {
	if len(images) == 0 {
		return entity.TextContent(text)
	}
	parts := make([]entity.ContentPart, 0, len(images)+1)
	if text != "" {
		parts = append(parts, entity.TextPart(text))
	}
	for _, img := range images {
		parts = append(parts, entity.ImagePart(img.DataURL()))
	}
	return entity.PartsContent(parts...)
}
