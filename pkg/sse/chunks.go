package sse

import (
	"errors"
	"io"
	"iter"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned by a chunk sequence when the body is not valid
// UTF-8 text.
var ErrInvalidUTF8 = errors.New("stream is not valid UTF-8")

// defaultReadSize is the read buffer used by FromReader.
const defaultReadSize = 4096

// Chunks is an async sequence of raw text chunks in arrival order. A non-nil
// error ends the sequence.
type Chunks iter.Seq2[string, error]

// FromStrings returns a sequence yielding each chunk in turn.
func FromStrings(chunks ...string) Chunks {
	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// FromReader returns a sequence of text chunks read from r, one read in
// flight at a time. A multi-byte character split across two reads is held
// back until it is complete; bytes that can never form valid UTF-8 end the
// sequence with ErrInvalidUTF8. Read errors other than io.EOF are yielded
// as-is.
func FromReader(r io.Reader) Chunks {
	return func(yield func(string, error) bool) {
		buf := make([]byte, defaultReadSize)
		var carry []byte

		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := append(carry, buf[:n]...)
				cut := completeRunes(data)
				if !utf8.Valid(data[:cut]) {
					yield("", ErrInvalidUTF8)
					return
				}

				if cut > 0 && !yield(string(data[:cut]), nil) {
					return
				}
				carry = append([]byte(nil), data[cut:]...)
			}

			if errors.Is(err, io.EOF) {
				if len(carry) > 0 {
					yield("", ErrInvalidUTF8)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// completeRunes returns the length of the longest prefix of b that does not
// end in the middle of a multi-byte character.
func completeRunes(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return i
		}
		break
	}
	return len(b)
}

// Tee returns a sequence yielding the same chunks as src while writing each
// one verbatim to dest, for recording a raw stream next to its decoding.
func Tee(src Chunks, dest io.Writer) Chunks {
	return func(yield func(string, error) bool) {
		for chunk, err := range src {
			if err != nil {
				yield("", err)
				return
			}
			if _, err := io.WriteString(dest, chunk); err != nil {
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
