package logger

import (
	"io"
	"log/slog"
)

// format selects the handler New builds.
type format int

const (
	formatText format = iota
	formatPretty
	formatJSON
)

// Option configures a logger built by New. Options apply in order, so a
// later format option replaces an earlier one.
type Option func(*config)

// WithDebug lowers the level to Debug. Stream progress (chunks, records,
// start detection) is only logged at this level.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty switches to the colorized charmbracelet/log handler used for
// terminal diagnostics.
func WithPretty(pretty bool) Option {
	return selectFormat(formatPretty, pretty)
}

// WithJSON switches to slog's JSON handler, one object per line, as written
// to --log-file.
func WithJSON(json bool) Option {
	return selectFormat(formatJSON, json)
}

// selectFormat turns f on, or back to plain text when it is being turned off.
func selectFormat(f format, on bool) Option {
	return func(c *config) {
		switch {
		case on:
			c.format = f
		case c.format == f:
			c.format = formatText
		}
	}
}

// WithWriter sends records to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters sends every record to all of ws.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) {
		c.writers = append([]io.Writer(nil), ws...)
	}
}

// WithSource adds the calling file and line to each record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
