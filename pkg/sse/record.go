// Package sse turns the streaming body of a completion-messages response into
// event records and extracts the answer text carried by each record.
//
// The upstream service frames events either as records separated by a blank
// line ("data: {...}\n\n") or as one event per line. Both framings are
// implemented by a Splitter so the decoder never cares which one is in use.
//
// Only the "data:" payload and the optional "event:" type line are read. The
// id and retry fields are ignored.
//
// Event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DataPrefix marks a record carrying a JSON payload.
	DataPrefix = "data:"

	// EventMessage is a regular answer delta.
	EventMessage = "message"

	// EventAgentMessage is an answer delta from an agent application.
	EventAgentMessage = "agent_message"

	// EventAgentThought carries agent reasoning and no answer text.
	EventAgentThought = "agent_thought"

	// EventMessageEnd signals the logical end of the answer.
	EventMessageEnd = "message_end"

	// EventError carries an upstream failure in place of an answer.
	EventError = "error"

	// doneSentinel is the OpenAI style end of stream payload.
	doneSentinel = "[DONE]"
)

// dataLinePrefix matches the "data:" prefix at the start of every line,
// together with the newline before it and the whitespace after it.
var dataLinePrefix = regexp.MustCompile(`(?m)\n?^data:\s*`)

// Payload is the JSON object carried by one event record. Unknown fields are
// ignored.
type Payload struct {
	Event          string `json:"event,omitempty"`
	Answer         string `json:"answer"`
	TaskID         string `json:"task_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`

	// Status, Code and Message are only populated on error events.
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsError reports whether the payload describes an upstream failure.
func (p Payload) IsError() bool {
	return p.Event == EventError || p.Status >= 400
}

// Record is one parsed event record.
type Record struct {
	// Raw is the record text as produced by the Splitter.
	Raw string

	// Type is the value of an "event:" line, if the record had one.
	Type string

	// Data is the record text with every "data:" prefix removed and
	// surrounding whitespace trimmed.
	Data string

	// Payload is the decoded JSON object. Zero when Err is set.
	Payload Payload

	// Err is the JSON decoding error, if any.
	Err error
}

// ParseRecord parses a single record. Records that do not begin with
// DataPrefix are returned with only Raw and Type set.
func ParseRecord(raw string) Record {
	r := Record{Raw: raw}

	for line := range strings.SplitSeq(raw, "\n") {
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			r.Type = strings.TrimSpace(v)
		}
	}

	if !r.IsEvent() {
		return r
	}

	r.Data = strings.TrimSpace(dataLinePrefix.ReplaceAllString(raw, ""))
	if r.Data == doneSentinel {
		return r
	}

	if err := json.Unmarshal([]byte(r.Data), &r.Payload); err != nil {
		r.Err = err
	}
	return r
}

// IsEvent reports whether the record carries a payload. Keep-alive comments
// and bare "event:" lines are not events. Stray leading newlines are ignored.
func (r Record) IsEvent() bool {
	return strings.HasPrefix(strings.TrimLeft(r.Raw, "\n"), DataPrefix)
}

// IsTerminator reports whether the record ends the answer: a message_end
// event (by payload or by "event:" line), the "[DONE]" sentinel, or a
// payload that failed to decode but still names message_end.
func (r Record) IsTerminator() bool {
	switch {
	case r.Type == EventMessageEnd:
		return true
	case r.Data == doneSentinel:
		return true
	case r.Err == nil:
		return r.Payload.Event == EventMessageEnd
	}
	return strings.Contains(r.Raw, EventMessageEnd)
}

// Fragment returns the answer text of the record. A payload that failed to
// decode yields a diagnostic embedding the raw record and the decoding error.
func (r Record) Fragment() string {
	if r.Err != nil {
		return fmt.Sprintf("Error decoding payload %s.\n%v", r.Raw, r.Err)
	}
	return r.Payload.Answer
}

// Extract returns the answer text of one raw record. See Record.Fragment.
func Extract(raw string) string {
	return ParseRecord(raw).Fragment()
}
