// Package shortcut maps key chords to drill actions.
package shortcut

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChord is returned for unparsable chord notation.
var ErrInvalidChord = errors.New("invalid key chord")

// KeyChord is a key plus modifier flags. It is comparable and used as a map key.
type KeyChord struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
	Key   string
}

// Key names used by chords. Printable keys use their character.
const (
	KeySpace = " "
	KeyLeft  = "ArrowLeft"
	KeyRight = "ArrowRight"
	KeyUp    = "ArrowUp"
	KeyDown  = "ArrowDown"
)

var keyAliases = map[string]string{
	"Space": KeySpace,
	"←":     KeyLeft,
	"→":     KeyRight,
	"↑":     KeyUp,
	"↓":     KeyDown,
}

var keyLabels = map[string]string{
	KeySpace: "Space",
	KeyLeft:  "←",
	KeyRight: "→",
	KeyUp:    "↑",
	KeyDown:  "↓",
}

// Chord returns an unmodified chord for key.
func Chord(key string) KeyChord {
	return KeyChord{Key: key}
}

// ParseChord parses notation like "r", "^+r", "Space" or "!←".
// Prefixes: ^ ctrl, + shift, ! alt, # meta.
func ParseChord(s string) (KeyChord, error) {
	var c KeyChord
	rest := s
prefixes:
	for len(rest) > 1 {
		switch rest[0] {
		case '^':
			c.Ctrl = true
		case '+':
			c.Shift = true
		case '!':
			c.Alt = true
		case '#':
			c.Meta = true
		default:
			break prefixes
		}
		rest = rest[1:]
	}
	if rest == "" {
		return KeyChord{}, fmt.Errorf("%w: %q", ErrInvalidChord, s)
	}
	if alias, ok := keyAliases[rest]; ok {
		rest = alias
	}
	if strings.TrimSpace(rest) == "" && rest != KeySpace {
		return KeyChord{}, fmt.Errorf("%w: %q", ErrInvalidChord, s)
	}
	c.Key = rest
	return c, nil
}

// String renders the chord in the notation ParseChord accepts.
func (c KeyChord) String() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteByte('^')
	}
	if c.Shift {
		b.WriteByte('+')
	}
	if c.Alt {
		b.WriteByte('!')
	}
	if c.Meta {
		b.WriteByte('#')
	}
	if label, ok := keyLabels[c.Key]; ok {
		b.WriteString(label)
	} else {
		b.WriteString(c.Key)
	}
	return b.String()
}
