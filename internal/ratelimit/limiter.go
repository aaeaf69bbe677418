// Package ratelimit implements a fixed-window request counter keyed by
// client address.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store 计数存储
type Store interface {
	// Increment adds one hit to key and returns the count within the current
	// window together with the instant the window ends.
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Result is the outcome of one Allow call
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
	ResetIn   time.Duration
}

// ResetSeconds rounds ResetIn up to whole seconds
func (r Result) ResetSeconds() int {
	secs := int((r.ResetIn + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Limiter 固定窗口限流器
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a Limiter allowing limit hits per window
func NewLimiter(store Store, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d per %s", limit, window)
	}

	l := &Limiter{store: store, limit: limit, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Limit returns the hits allowed per window
func (l *Limiter) Limit() int { return l.limit }

// Window returns the window length
func (l *Limiter) Window() time.Duration { return l.window }

// Allow records one hit for key. The error is the store's; callers decide
// whether to fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return Result{Allowed: true, Limit: l.limit, Remaining: l.limit, Window: l.window}, err
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	resetIn := resetAt.Sub(l.now())
	if resetIn < 0 {
		resetIn = 0
	}

	return Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		Window:    l.window,
		ResetIn:   resetIn,
	}, nil
}
