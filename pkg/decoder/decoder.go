// Package decoder incrementally decodes a streaming completion response into
// plain text.
//
// A Decoder pulls raw chunks one at a time, cuts them into event records,
// extracts the answer fragment of each record, gates output on a start marker
// (typically an opening markdown code fence), strips exclusion patterns from
// what it emits and hands every cleaned fragment to a sink as soon as it is
// available. Decoding stops at end of stream, at a terminator event or when
// its context is cancelled.
package decoder

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/aish/pkg/logger"
	"github.com/papercomputeco/aish/pkg/sse"
	"github.com/papercomputeco/aish/pkg/strip"
)

// Sink receives each cleaned fragment as soon as it is decoded. It runs
// synchronously in the decode loop: a slow sink stalls the stream.
type Sink func(text string)

// Option configures a Decoder created with New.
type Option func(*Decoder)

// WithFraming selects the record framing. Defaults to sse.FramingRecord.
func WithFraming(f sse.Framing) Option {
	return func(d *Decoder) {
		d.framing = f
	}
}

// WithLogger sets the logger used for per-stream debug output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder decodes one stream per Decode call. It is not safe for concurrent
// use; the State of the most recent call stays inspectable until the next.
type Decoder struct {
	framing sse.Framing
	logger  *slog.Logger

	state *State
}

// New returns a Decoder configured with opts.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		framing: sse.FramingRecord,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode is shorthand for New(opts...).Decode(ctx, chunks, exclusions, sink).
func Decode(ctx context.Context, chunks sse.Chunks, exclusions strip.Exclusions, sink Sink, opts ...Option) (string, error) {
	return New(opts...).Decode(ctx, chunks, exclusions, sink)
}

// State returns the state of the most recent Decode call, or nil.
func (d *Decoder) State() *State {
	return d.state
}

// Decode consumes chunks until the stream ends, a terminator record arrives or
// ctx is cancelled, and returns the accumulated text.
//
// The first pattern of exclusions is the start marker: nothing is emitted
// until the fragments seen so far match it, and the text up to the end of the
// match is dropped. Every emitted fragment is then stripped with the whole
// exclusion list. With no exclusions every fragment is emitted as-is.
//
// Cancellation is checked once per chunk and once per record; it is not an
// error and returns the text accumulated so far. An upstream error event
// returns an *UpstreamError. A failing chunk source returns a *StreamError
// and no text, unless ctx was already cancelled.
func (d *Decoder) Decode(ctx context.Context, chunks sse.Chunks, exclusions strip.Exclusions, sink Sink) (string, error) {
	st := newState()
	d.state = st

	run := &run{
		ctx:        ctx,
		state:      st,
		exclusions: exclusions,
		sink:       sink,
	}
	run.marker, run.hasMarker = exclusions.StartMarker()

	splitter := sse.NewSplitter(d.framing)

	text, err := run.consume(chunks, splitter)
	d.logger.Debug("stream decoded",
		"reason", st.Reason.String(),
		"records", st.Records,
		"emitted", st.Emitted,
		"bytes", len(text),
	)
	return text, err
}

// run carries one Decode invocation through the loop.
type run struct {
	ctx        context.Context
	state      *State
	exclusions strip.Exclusions
	marker     strip.Pattern
	hasMarker  bool
	sink       Sink
}

func (r *run) consume(chunks sse.Chunks, splitter sse.Splitter) (string, error) {
	st := r.state

	for chunk, err := range chunks {
		if err != nil {
			if r.ctx.Err() != nil {
				st.cancel()
				return st.Text(), nil
			}
			st.finish(ReasonTransportError)
			return "", &StreamError{Err: err}
		}

		if r.ctx.Err() != nil {
			st.cancel()
			return st.Text(), nil
		}

		for _, rec := range splitter.Split(chunk) {
			done, err := r.step(rec)
			if err != nil {
				return "", err
			}
			if done {
				return st.Text(), nil
			}
		}
	}

	if rec, ok := splitter.Flush(); ok {
		done, err := r.step(rec)
		if err != nil {
			return "", err
		}
		if done {
			return st.Text(), nil
		}
	}

	st.finish(ReasonEndOfStream)
	return st.Text(), nil
}

// step processes a single record and reports whether decoding is done.
func (r *run) step(raw string) (bool, error) {
	st := r.state

	if r.ctx.Err() != nil {
		st.cancel()
		return true, nil
	}

	rec := sse.ParseRecord(raw)
	if rec.IsTerminator() {
		st.finish(ReasonTerminator)
		return true, nil
	}

	if !rec.IsEvent() {
		return false, nil
	}

	if rec.Err == nil && rec.Payload.IsError() {
		st.finish(ReasonUpstreamError)
		return true, &UpstreamError{
			Status:  rec.Payload.Status,
			Code:    rec.Payload.Code,
			Message: rec.Payload.Message,
		}
	}

	st.Records++
	fragment := rec.Fragment()

	if !st.Started {
		var ok bool
		fragment, ok = r.awaitStart(fragment)
		if !ok {
			return false, nil
		}
	}

	r.emit(fragment)
	return false, nil
}

// awaitStart buffers fragment until the lookback matches the start marker.
// It returns the text following the match once the marker is found.
func (r *run) awaitStart(fragment string) (string, bool) {
	st := r.state
	st.Lookback += fragment

	loc := []int{0, 0}
	if r.hasMarker {
		loc = r.marker.Find(st.Lookback)
	}
	if loc == nil {
		return "", false
	}

	rest := st.Lookback[loc[1]:]
	st.start()
	return rest, true
}

func (r *run) emit(fragment string) {
	if fragment == "" {
		return
	}

	cleaned := r.exclusions.Strip(fragment)
	if cleaned == "" {
		return
	}

	r.state.append(cleaned)
	if r.sink != nil {
		r.sink(cleaned)
	}
}
