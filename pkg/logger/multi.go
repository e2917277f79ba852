package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout is a slog.Handler that hands each record to several handlers, each
// filtering by its own level. The session uses it to log pretty records to
// stderr and debug JSON to --log-file from one *slog.Logger.
type fanout []slog.Handler

// Multi returns a logger writing through the handlers of all loggers.
// Discarding loggers are dropped and nested Multi loggers are flattened.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	var f fanout
	for _, l := range loggers {
		switch h := l.Handler().(type) {
		case nopHandler:
		case fanout:
			f = append(f, h...)
		default:
			f = append(f, h)
		}
	}

	switch len(f) {
	case 0:
		return Nop()
	case 1:
		return slog.New(f[0])
	}
	return slog.New(f)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives every enabled handler its own copy of r. A failing handler
// does not stop the others; all errors are joined.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
