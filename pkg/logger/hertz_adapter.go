package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// HertzSlogAdapter routes hlog output into slog, tagged source=hertz.
// Levels below the one given to SetLevel are dropped.
type HertzSlogAdapter struct {
	logger atomic.Pointer[slog.Logger]
	level  atomic.Int32
}

var _ hlog.FullLogger = (*HertzSlogAdapter)(nil)

// NewHertzSlogAdapter creates a new Hertz logger adapter using slog
func NewHertzSlogAdapter(l *slog.Logger) *HertzSlogAdapter {
	a := &HertzSlogAdapter{}
	a.logger.Store(l.With("source", "hertz"))
	a.level.Store(int32(hlog.LevelInfo))
	return a
}

// slogLevel Trace/Notice/Fatal 没有对应级别，分别并入 Debug/Info/Error
func slogLevel(level hlog.Level) slog.Level {
	switch level {
	case hlog.LevelTrace, hlog.LevelDebug:
		return slog.LevelDebug
	case hlog.LevelInfo, hlog.LevelNotice:
		return slog.LevelInfo
	case hlog.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (a *HertzSlogAdapter) log(ctx context.Context, level hlog.Level, msg func() string) {
	if level < hlog.Level(a.level.Load()) {
		return
	}
	a.logger.Load().Log(ctx, slogLevel(level), msg())
}

func sprint(v []interface{}) func() string {
	return func() string {
		if len(v) == 1 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
		return fmt.Sprint(v...)
	}
}

func sprintf(format string, v []interface{}) func() string {
	return func() string { return fmt.Sprintf(format, v...) }
}

func (a *HertzSlogAdapter) Trace(v ...interface{})  { a.log(context.Background(), hlog.LevelTrace, sprint(v)) }
func (a *HertzSlogAdapter) Debug(v ...interface{})  { a.log(context.Background(), hlog.LevelDebug, sprint(v)) }
func (a *HertzSlogAdapter) Info(v ...interface{})   { a.log(context.Background(), hlog.LevelInfo, sprint(v)) }
func (a *HertzSlogAdapter) Notice(v ...interface{}) { a.log(context.Background(), hlog.LevelNotice, sprint(v)) }
func (a *HertzSlogAdapter) Warn(v ...interface{})   { a.log(context.Background(), hlog.LevelWarn, sprint(v)) }
func (a *HertzSlogAdapter) Error(v ...interface{})  { a.log(context.Background(), hlog.LevelError, sprint(v)) }
func (a *HertzSlogAdapter) Fatal(v ...interface{})  { a.log(context.Background(), hlog.LevelFatal, sprint(v)) }

func (a *HertzSlogAdapter) Tracef(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelTrace, sprintf(format, v))
}

func (a *HertzSlogAdapter) Debugf(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelDebug, sprintf(format, v))
}

func (a *HertzSlogAdapter) Infof(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelInfo, sprintf(format, v))
}

func (a *HertzSlogAdapter) Noticef(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelNotice, sprintf(format, v))
}

func (a *HertzSlogAdapter) Warnf(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelWarn, sprintf(format, v))
}

func (a *HertzSlogAdapter) Errorf(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelError, sprintf(format, v))
}

func (a *HertzSlogAdapter) Fatalf(format string, v ...interface{}) {
	a.log(context.Background(), hlog.LevelFatal, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelTrace, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelDebug, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelInfo, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelNotice, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelWarn, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelError, sprintf(format, v))
}

func (a *HertzSlogAdapter) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	a.log(ctx, hlog.LevelFatal, sprintf(format, v))
}

// SetLevel sets the minimum hlog level that is forwarded
func (a *HertzSlogAdapter) SetLevel(level hlog.Level) {
	a.level.Store(int32(level))
}

// SetOutput redirects Hertz logs to w as JSON
func (a *HertzSlogAdapter) SetOutput(w io.Writer) {
	a.logger.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})).With("source", "hertz"))
}
