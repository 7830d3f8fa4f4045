// Package pitch implements semitone arithmetic on the twelve pitch classes
// and the fixed note-name spelling used for display.
package pitch

import (
	"errors"
	"fmt"
	"strings"
)

// N is the number of pitch classes in the scale.
const N = 12

// Class is a pitch class in [0,11]. Equality is exact; enharmonic spelling
// is only a display concern.
type Class int

const (
	C Class = iota
	Db
	D
	Eb
	E
	F
	Gb
	G
	Ab
	A
	Bb
	B
)

// ErrNoteLetter is returned when a note letter is outside A-G.
var ErrNoteLetter = errors.New("note letter must be one of A-G")

var letterBase = map[byte]Class{
	'A': A, 'B': B, 'C': C, 'D': D, 'E': E, 'F': F, 'G': G,
}

// letters and glyphs are indexed by pitch class. Flats only, never sharps.
var (
	letters = [N]byte{'C', 'D', 'D', 'E', 'E', 'F', 'G', 'G', 'A', 'A', 'B', 'B'}
	glyphs  = [N]byte{' ', 'b', ' ', 'b', ' ', ' ', 'b', ' ', 'b', ' ', 'b', ' '}
)

var intervals = [N]string{"R", "m2", "M2", "m3", "M3", "P4", "TT", "P5", "m6", "M6", "m7", "M7"}

// IsLetter reports whether ch is a note letter (A-G, either case).
func IsLetter(ch byte) bool {
	_, ok := letterBase[upper(ch)]
	return ok
}

// ParseNote resolves a letter and an optional accidental ('#' or 'b') to a
// pitch class. Any other accidental byte means natural.
func ParseNote(letter, accidental byte) (Class, error) {
	base, ok := letterBase[upper(letter)]
	if !ok {
		return 0, fmt.Errorf("%w: got %q", ErrNoteLetter, letter)
	}
	switch accidental {
	case '#':
		return Shift(base, 1), nil
	case 'b':
		return Shift(base, -1), nil
	default:
		return base, nil
	}
}

// Parse reads a note written as a letter plus optional accidental, e.g.
// "C", "f#", "Bb".
func Parse(s string) (Class, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty note", ErrNoteLetter)
	}
	var acc byte = ' '
	if len(s) > 1 {
		acc = s[1]
		if acc != '#' && acc != 'b' {
			return 0, fmt.Errorf("invalid accidental %q in note %q", acc, s)
		}
		if len(s) > 2 {
			return 0, fmt.Errorf("invalid note %q: expected letter and optional accidental", s)
		}
	}
	return ParseNote(s[0], acc)
}

// Shift moves c by delta semitones, wrapping into [0,11].
func Shift(c Class, delta int) Class {
	v := (int(c) + delta) % N
	if v < 0 {
		v += N
	}
	return Class(v)
}

// NameOf returns the display letter and accidental glyph for c. The glyph is
// a space for naturals and 'b' for the five flats.
func NameOf(c Class) (letter, glyph byte) {
	c = Shift(c, 0)
	return letters[c], glyphs[c]
}

// Label is the fixed two-character display label, e.g. "C " or "Eb".
func (c Class) Label() string {
	l, g := NameOf(c)
	return string([]byte{l, g})
}

func (c Class) String() string {
	return strings.TrimRight(c.Label(), " ")
}

// Interval names the distance from root up to note: R, m2, M2, ..., M7.
func Interval(root, note Class) string {
	return intervals[Shift(note, -int(root))]
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}

// MarshalText encodes the class by its display name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts any spelling Parse accepts.
func (c *Class) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
