package sse

import (
	"fmt"
	"strings"
)

// Framing selects how a stream is cut into records.
type Framing string

const (
	// FramingRecord separates records with a blank line ("\n\n").
	FramingRecord Framing = "record"

	// FramingLine treats every line as a record.
	FramingLine Framing = "line"
)

// ParseFraming validates a framing name from configuration. An empty name
// selects FramingRecord.
func ParseFraming(s string) (Framing, error) {
	switch f := Framing(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FramingRecord:
		return FramingRecord, nil
	case FramingLine:
		return FramingLine, nil
	default:
		return "", fmt.Errorf("unknown stream framing: %q (available: record, line)", s)
	}
}

// Splitter cuts an arbitrarily chunked text stream into records.
//
// Text that does not yet end in a delimiter is held back until a later chunk
// completes it, so the records produced are identical no matter how the
// network split the stream.
//
// ┌──────────────────┐
// │ RawChunk         │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────────┐
// │ Splitter.Split() │──▶│ pending partial record    │
// └──────────────────┘   └───────────────────────────┘
// │                                    │ end of stream
// ▼                                    ▼
// ┌──────────────────┐   ┌───────────────────────────┐
// │ EventRecords     │   │ Splitter.Flush()          │
// └──────────────────┘   └───────────────────────────┘
type Splitter interface {
	// Split appends chunk to the pending text and returns every record it
	// completed, in stream order. Empty records are skipped.
	Split(chunk string) []string

	// Flush returns the pending partial record left when the stream ends.
	// ok is false when nothing is pending.
	Flush() (record string, ok bool)
}

// NewSplitter returns the Splitter for the given framing. Unknown framings
// fall back to FramingRecord.
func NewSplitter(f Framing) Splitter {
	if f == FramingLine {
		return NewLineSplitter()
	}
	return NewRecordSplitter()
}

// delimSplitter holds back text until delim is seen.
type delimSplitter struct {
	delim   string
	pending string
	clean   func(string) string
}

func (s *delimSplitter) Split(chunk string) []string {
	s.pending += chunk

	var records []string
	for {
		i := strings.Index(s.pending, s.delim)
		if i < 0 {
			break
		}

		rec := s.clean(s.pending[:i])
		s.pending = s.pending[i+len(s.delim):]
		if rec != "" {
			records = append(records, rec)
		}
	}
	return records
}

func (s *delimSplitter) Flush() (string, bool) {
	rec := s.clean(s.pending)
	s.pending = ""
	return rec, rec != ""
}

// RecordSplitter splits on blank lines. Stray newlines left over from a run
// of more than two are trimmed from the front of the next record.
type RecordSplitter struct {
	delimSplitter
}

func NewRecordSplitter() *RecordSplitter {
	return &RecordSplitter{delimSplitter{
		delim: "\n\n",
		clean: func(s string) string { return strings.TrimLeft(s, "\n") },
	}}
}

// LineSplitter splits on single newlines. A trailing carriage return is
// dropped from each line.
type LineSplitter struct {
	delimSplitter
}

func NewLineSplitter() *LineSplitter {
	return &LineSplitter{delimSplitter{
		delim: "\n",
		clean: func(s string) string { return strings.TrimSuffix(s, "\r") },
	}}
}
