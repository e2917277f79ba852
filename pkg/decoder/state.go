package decoder

import "strings"

// Reason records why a stream stopped.
type Reason int

const (
	// ReasonNone means the stream is still being decoded.
	ReasonNone Reason = iota

	// ReasonEndOfStream means the input ran out without a terminator.
	ReasonEndOfStream

	// ReasonTerminator means a terminator record was observed.
	ReasonTerminator

	// ReasonCancelled means the context was cancelled.
	ReasonCancelled

	// ReasonUpstreamError means the stream carried an error event.
	ReasonUpstreamError

	// ReasonTransportError means the chunk source failed.
	ReasonTransportError
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonEndOfStream:
		return "end_of_stream"
	case ReasonTerminator:
		return "terminator"
	case ReasonCancelled:
		return "cancelled"
	case ReasonUpstreamError:
		return "upstream_error"
	case ReasonTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// State is the mutable state of one decoded stream. It is owned by a single
// Decode call and exposed through Decoder.State for inspection.
type State struct {
	// Started is set once the start marker has matched and never reverts.
	Started bool

	// Lookback holds fragments seen before the start marker matched. It is
	// cleared when the marker matches and unused afterwards.
	Lookback string

	// Cancelled is set when the context was observed cancelled.
	Cancelled bool

	// Done is set when decoding stopped, for whatever Reason.
	Done   bool
	Reason Reason

	// Records counts the event records extracted. Emitted counts sink calls.
	Records int
	Emitted int

	out strings.Builder
}

func newState() *State {
	return &State{}
}

// Text returns the accumulated output.
func (s *State) Text() string {
	return s.out.String()
}

func (s *State) start() {
	s.Started = true
	s.Lookback = ""
}

func (s *State) append(text string) {
	s.out.WriteString(text)
	s.Emitted++
}

func (s *State) cancel() {
	s.Cancelled = true
	s.finish(ReasonCancelled)
}

func (s *State) finish(r Reason) {
	s.Done = true
	s.Reason = r
}
