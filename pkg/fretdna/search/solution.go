package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
)

// Muted marks a string that is not sounded.
const Muted = -1

// Solution assigns one fret (or Muted) to each string, low to high.
type Solution [fretboard.Strings]int

// String renders tab shorthand: "x32010", or "x-10-12-12-10-x" when any fret
// needs two digits.
func (s Solution) String() string {
	wide := false
	for _, f := range s {
		if f >= 10 {
			wide = true
		}
	}
	parts := make([]string, len(s))
	for i, f := range s {
		if f == Muted {
			parts[i] = "x"
		} else {
			parts[i] = strconv.Itoa(f)
		}
	}
	if wide {
		return strings.Join(parts, "-")
	}
	return strings.Join(parts, "")
}

// Sounding counts the strings that are not muted.
func (s Solution) Sounding() int {
	n := 0
	for _, f := range s {
		if f != Muted {
			n++
		}
	}
	return n
}

// Span is the distance between the lowest and highest fretted note. Open
// and muted strings are ignored.
func (s Solution) Span() int {
	lo, hi := fretboard.MaxFret, 0
	for _, f := range s {
		if f > 0 {
			lo = min(lo, f)
			hi = max(hi, f)
		}
	}
	if hi == 0 {
		return 0
	}
	return hi - lo
}

// ParseSolution reads the shorthand produced by String. Either form is
// accepted; separated frets may also use commas or spaces, and 'X' means muted.
func ParseSolution(text string) (Solution, error) {
	var sol Solution
	text = strings.TrimSpace(text)

	var parts []string
	if strings.ContainsAny(text, "-, ") {
		parts = strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '-'
		})
	} else {
		parts = strings.Split(text, "")
	}
	if len(parts) != fretboard.Strings {
		return sol, fmt.Errorf("fingering %q: expected %d strings, found %d", text, fretboard.Strings, len(parts))
	}

	for i, p := range parts {
		if p == "x" || p == "X" {
			sol[i] = Muted
			continue
		}
		f, err := strconv.Atoi(p)
		if err != nil {
			return sol, fmt.Errorf("fingering %q: string %d: %w", text, i, err)
		}
		if f < 0 || f >= fretboard.MaxFret {
			return sol, fmt.Errorf("fingering %q: string %d: fret must be in [0,%d], got %d", text, i, fretboard.MaxFret-1, f)
		}
		sol[i] = f
	}
	return sol, nil
}
