package keypress

import (
	"fmt"
	"strings"
)

// Key identifies a key press as decoded from raw terminal input.
type Key string

const (
	KeyQ      Key = "q"
	KeyEscape Key = "escape"
	KeyCtrlC  Key = "ctrl+c"
)

// DefaultKeys are the keys that stop a stream when nothing else is configured.
var DefaultKeys = []Key{KeyQ, KeyEscape}

const (
	esc   = 0x1b
	ctrlC = 0x03
)

// ParseKeys parses a comma separated key list such as "q,escape". An empty
// list yields DefaultKeys.
func ParseKeys(s string) ([]Key, error) {
	var keys []Key
	for name := range strings.SplitSeq(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case name == "":
			continue
		case name == "esc" || name == string(KeyEscape):
			keys = append(keys, KeyEscape)
		case name == string(KeyCtrlC):
			keys = append(keys, KeyCtrlC)
		case len(name) == 1 && name[0] > ' ' && name[0] < 0x7f:
			keys = append(keys, Key(name))
		default:
			return nil, fmt.Errorf("unknown cancel key: %q", name)
		}
	}

	if len(keys) == 0 {
		return DefaultKeys, nil
	}
	return keys, nil
}

// decodeKeys turns one read of raw input into key presses. A lone ESC is the
// escape key; ESC followed by more bytes starts a control sequence (arrows,
// function keys, alt chords) which is skipped.
func decodeKeys(b []byte) []Key {
	var keys []Key
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == esc:
			if i == len(b)-1 {
				keys = append(keys, KeyEscape)
				continue
			}
			i = skipSequence(b, i)
		case c == ctrlC:
			keys = append(keys, KeyCtrlC)
		case c >= ' ' && c < 0x7f:
			keys = append(keys, Key(strings.ToLower(string(rune(c)))))
		}
	}
	return keys
}

// skipSequence returns the index of the last byte of the escape sequence
// starting at b[i].
func skipSequence(b []byte, i int) int {
	i++
	if b[i] != '[' && b[i] != 'O' {
		return i
	}
	for i++; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			return i
		}
	}
	return len(b) - 1
}
