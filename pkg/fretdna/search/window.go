package search

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
)

// ErrWindow is returned for a fret window that cannot be searched.
var ErrWindow = errors.New("invalid fret window")

// Window is the contiguous range of frets a search considers.
type Window struct {
	First  int `json:"first" toml:"first_fret"`
	Length int `json:"length" toml:"frets"`
}

// DefaultWindow starts at the first fret and spans four frets.
var DefaultWindow = Window{First: 1, Length: 4}

// Last is the highest fret in the window, clamped to the board.
func (w Window) Last() int {
	return min(w.First+w.Length-1, fretboard.MaxFret-1)
}

// Validate reports the offending field and its constraint.
func (w Window) Validate() error {
	switch {
	case w.First < 0:
		return fmt.Errorf("%w: first fret must be >= 0, got %d", ErrWindow, w.First)
	case w.First >= fretboard.MaxFret:
		return fmt.Errorf("%w: first fret must be < %d, got %d", ErrWindow, fretboard.MaxFret, w.First)
	case w.Length < 1:
		return fmt.Errorf("%w: fret count must be >= 1, got %d", ErrWindow, w.Length)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("frets %d-%d", w.First, w.Last())
}
