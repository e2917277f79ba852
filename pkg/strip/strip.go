// Package strip removes exclusion patterns (code fence markers, stray
// newlines) from streamed completion text.
//
// A pattern is either a literal substring or a regular expression. Patterns
// never fail at strip time: a regular expression that does not compile is
// kept as a no-op so one bad entry in a configured list cannot break a stream.
package strip

import (
	"regexp"
	"strings"
)

// Pattern is a single exclusion pattern.
type Pattern struct {
	literal string
	re      *regexp.Regexp

	// source is the text the pattern was built from, kept for logging.
	source  string
	invalid bool
}

// Literal returns a pattern matching s verbatim.
func Literal(s string) Pattern {
	return Pattern{literal: s, source: s}
}

// Regexp returns a pattern removing every match of re. A nil re yields a
// no-op pattern.
func Regexp(re *regexp.Regexp) Pattern {
	if re == nil {
		return Pattern{invalid: true}
	}
	return Pattern{re: re, source: re.String()}
}

// Compile parses expr as a regular expression. When expr does not compile
// the returned pattern is a no-op and Valid reports false.
func Compile(expr string) Pattern {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{source: expr, invalid: true}
	}
	return Pattern{re: re, source: expr}
}

// MustCompile is like Compile but panics when expr does not compile. It is
// meant for package level pattern tables.
func MustCompile(expr string) Pattern {
	return Regexp(regexp.MustCompile(expr))
}

// Parse builds a pattern from configuration text. Text of the form
// "/expr/flags" is a regular expression; the "i" flag makes it case
// insensitive and "g" is accepted for familiarity (removal is always global).
// Anything else is a literal.
func Parse(text string) Pattern {
	if len(text) < 2 || text[0] != '/' {
		return Literal(text)
	}

	end := strings.LastIndexByte(text, '/')
	if end == 0 {
		return Literal(text)
	}

	expr, flags := text[1:end], text[end+1:]
	for _, f := range flags {
		switch f {
		case 'i':
			expr = "(?i)" + expr
		case 'g':
		default:
			return Literal(text)
		}
	}

	p := Compile(expr)
	p.source = text
	return p
}

// Valid reports whether the pattern compiled.
func (p Pattern) Valid() bool {
	return !p.invalid
}

// IsEmpty reports whether the pattern can only ever match the empty string
// at the start of the text, which is the case for the empty literal.
func (p Pattern) IsEmpty() bool {
	return !p.invalid && p.re == nil && p.literal == ""
}

func (p Pattern) String() string {
	return p.source
}

// Find returns the location of the leftmost match of p in text, or nil.
// The empty literal matches at the start of any text. An invalid pattern
// never matches.
func (p Pattern) Find(text string) []int {
	switch {
	case p.invalid:
		return nil
	case p.re != nil:
		return p.re.FindStringIndex(text)
	}

	i := strings.Index(text, p.literal)
	if i < 0 {
		return nil
	}
	return []int{i, i + len(p.literal)}
}

// Remove deletes every non-overlapping match of p in text, left to right.
func (p Pattern) Remove(text string) string {
	switch {
	case p.invalid:
		return text
	case p.re != nil:
		return p.re.ReplaceAllLiteralString(text, "")
	case p.literal == "":
		return text
	}
	return strings.ReplaceAll(text, p.literal, "")
}

// Exclusions is an ordered list of patterns. The first element is the start
// marker used by the stream decoder to detect where real content begins.
type Exclusions []Pattern

// StartMarker returns the first pattern, if any.
func (e Exclusions) StartMarker() (Pattern, bool) {
	if len(e) == 0 {
		return Pattern{}, false
	}
	return e[0], true
}

// Strip applies every pattern in order, repeating the pass until no pattern
// matches. The result is always a fixed point: Strip(Strip(s)) == Strip(s).
func (e Exclusions) Strip(text string) string {
	for text != "" {
		next := text
		for _, p := range e {
			next = p.Remove(next)
		}
		if next == text {
			break
		}
		text = next
	}
	return text
}

func (e Exclusions) String() string {
	parts := make([]string, len(e))
	for i, p := range e {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Strip removes all patterns from text. See Exclusions.Strip.
func Strip(text string, patterns Exclusions) string {
	return patterns.Strip(text)
}

// ParseAll builds an exclusion list from configuration text with Parse.
func ParseAll(texts []string) Exclusions {
	e := make(Exclusions, 0, len(texts))
	for _, t := range texts {
		e = append(e, Parse(t))
	}
	return e
}
