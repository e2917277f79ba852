// Package runner streams one completion from request to rendered text.
//
// A Runner sends a prompt, installs a keypress listener for the duration of
// the stream, decodes the answer with a set of exclusion patterns and writes
// each cleaned fragment to an output as it arrives. Cancellation from a key
// press, a timeout or the caller's context all flow through one context.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/papercomputeco/aish/pkg/decoder"
	"github.com/papercomputeco/aish/pkg/keypress"
	"github.com/papercomputeco/aish/pkg/logger"
	"github.com/papercomputeco/aish/pkg/sse"
	"github.com/papercomputeco/aish/pkg/strip"
)

// Streamer opens the raw event stream for a prompt.
type Streamer interface {
	Stream(ctx context.Context, query string) (io.ReadCloser, error)
}

// Config configures a Runner.
type Config struct {
	Framing sse.Framing

	// Timeout bounds each Run. Zero disables it.
	Timeout time.Duration

	// Input is watched for cancel keys while streaming. A terminal is put
	// into raw mode. Nil disables key cancellation.
	Input io.Reader
	Keys  []keypress.Key

	// Record receives a verbatim copy of every raw stream when set.
	Record io.Writer

	Logger *slog.Logger
}

// Result describes one streamed completion.
type Result struct {
	// Text is the decoded answer.
	Text string

	// Reason is why decoding stopped.
	Reason decoder.Reason

	// Pressed is the cancel key that stopped the stream, if any.
	Pressed keypress.Key

	// TimedOut is set when Config.Timeout elapsed.
	TimedOut bool

	// Fallback is set when the answer never matched the start marker and
	// Text was recovered from the unmatched lookback.
	Fallback bool
}

// Cancelled reports whether the stream was stopped before it ended.
func (r Result) Cancelled() bool {
	return r.Reason == decoder.ReasonCancelled
}

// Runner streams completions. It is safe to reuse sequentially.
type Runner struct {
	streamer Streamer
	cfg      Config
	logger   *slog.Logger
}

// New returns a Runner sending prompts through s.
func New(s Streamer, cfg Config) *Runner {
	r := &Runner{
		streamer: s,
		cfg:      cfg,
		logger:   cfg.Logger,
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	if r.cfg.Framing == "" {
		r.cfg.Framing = sse.FramingRecord
	}
	return r
}

// Run sends query and writes the decoded answer to out as it streams.
func (r *Runner) Run(ctx context.Context, query string, exclusions strip.Exclusions, out io.Writer) (Result, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	var listener *keypress.Listener
	if r.cfg.Input != nil {
		var err error
		listener, err = r.listen(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("installing keypress listener: %w", err)
		}
		defer listener.Close()

		ctx = listener.Context()
		out = listener.Output(out)
	}

	body, err := r.streamer.Stream(ctx, query)
	if err != nil {
		res := r.interrupted(ctx, listener)
		if res.Cancelled() && !res.TimedOut {
			return res, nil
		}
		return res, err
	}
	defer body.Close()

	chunks := sse.FromReader(body)
	if r.cfg.Record != nil {
		chunks = sse.Tee(chunks, r.cfg.Record)
	}

	dec := decoder.New(
		decoder.WithFraming(r.cfg.Framing),
		decoder.WithLogger(r.logger),
	)
	text, err := dec.Decode(ctx, chunks, exclusions, func(s string) {
		_, _ = io.WriteString(out, s)
	})

	st := dec.State()
	res := Result{
		Text:     text,
		Reason:   st.Reason,
		TimedOut: errors.Is(context.Cause(ctx), context.DeadlineExceeded),
	}
	if listener != nil && st.Cancelled {
		res.Pressed, _ = listener.Pressed()
	}
	if err != nil {
		return res, err
	}

	if !st.Started && !st.Cancelled && st.Lookback != "" {
		res.Text = exclusions.Strip(st.Lookback)
		res.Fallback = true
		_, _ = io.WriteString(out, res.Text)
		r.logger.Debug("start marker never matched, using lookback",
			"bytes", len(res.Text),
		)
	}

	return res, nil
}

func (r *Runner) listen(ctx context.Context) (*keypress.Listener, error) {
	if f, ok := r.cfg.Input.(*os.File); ok {
		return keypress.Listen(ctx, f, r.cfg.Keys...)
	}
	return keypress.NewListener(ctx, r.cfg.Input, r.cfg.Keys...)
}

// interrupted describes a Run whose request failed before any stream was
// opened.
func (r *Runner) interrupted(ctx context.Context, l *keypress.Listener) Result {
	res := Result{Reason: decoder.ReasonTransportError}
	if ctx.Err() == nil {
		return res
	}

	res.Reason = decoder.ReasonCancelled
	res.TimedOut = errors.Is(context.Cause(ctx), context.DeadlineExceeded)
	if l != nil {
		res.Pressed, _ = l.Pressed()
	}
	return res
}
