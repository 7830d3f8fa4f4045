// Package chord extracts the set of pitch classes a chord must contain from
// free text, and builds targets from named chord qualities.
package chord

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
)

// Target is an ordered, duplicate-free set of pitch classes. Order is first
// appearance in the source text.
type Target []pitch.Class

// Contains reports whether c is part of the target.
func (t Target) Contains(c pitch.Class) bool {
	for _, n := range t {
		if n == c {
			return true
		}
	}
	return false
}

func (t Target) String() string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.String()
	}
	return strings.Join(names, " ")
}

var symbols = strings.NewReplacer("♯", "#", "♭", "b")

// Normalize folds full-width characters to their ASCII forms and maps the
// sharp and flat symbols to '#' and 'b'. ASCII text passes through unchanged.
func Normalize(text string) string {
	return symbols.Replace(width.Fold.String(text))
}

type scanState int

const (
	seeking scanState = iota
	accidental
)

// Scan returns every note named in text, in order, with repeats. A letter
// A-G starts a note and the character right after it is always consumed:
// '#' or 'b' modify the note, anything else leaves it natural. So "CEG" is
// C then G, and "Dadd9" is just D.
func Scan(text string) []pitch.Class {
	text = Normalize(text)

	var (
		notes  []pitch.Class
		state  = seeking
		letter byte
	)
	emit := func(acc byte) {
		// letter was validated by IsLetter when it was recorded
		c, _ := pitch.ParseNote(letter, acc)
		notes = append(notes, c)
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if state == accidental {
			state = seeking
			emit(ch)
			continue
		}
		if pitch.IsLetter(ch) {
			letter = ch
			state = accidental
		}
	}
	if state == accidental {
		emit(' ')
	}
	return notes
}

// Parse scans text and drops repeated pitch classes, keeping the first
// occurrence. Text with no notes yields an empty target.
func Parse(text string) Target {
	return Dedup(Scan(text))
}

// Dedup removes repeated pitch classes preserving first-appearance order.
func Dedup(notes []pitch.Class) Target {
	var seen [pitch.N]bool
	out := make(Target, 0, len(notes))
	for _, c := range notes {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
