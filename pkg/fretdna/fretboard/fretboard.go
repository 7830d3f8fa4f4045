// Package fretboard maps (fret, string) positions to pitch classes for a
// six-string instrument under a given open-string tuning.
package fretboard

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
)

const (
	// MaxFret is the number of fret positions, counting the open string as 0.
	MaxFret = 26
	// Strings is the number of strings, 0 being the lowest-pitched.
	Strings = 6
)

// ErrTuningLength is returned when a tuning does not name exactly six notes.
var ErrTuningLength = errors.New("invalid tuning length")

// Tuning holds the open-string pitch of each string, low to high.
type Tuning [Strings]pitch.Class

// Standard is E A D G B E.
var Standard = Tuning{pitch.E, pitch.A, pitch.D, pitch.G, pitch.B, pitch.E}

func (t Tuning) String() string {
	b := make([]byte, 0, 2*Strings)
	for i, c := range t {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, c.String()...)
	}
	return string(b)
}

// Fretboard is an immutable pitch table. Retuning produces a new board.
type Fretboard struct {
	tuning Tuning
	table  [MaxFret][Strings]pitch.Class
}

// Build fills the table from the open-string pitches, one semitone per fret.
func Build(t Tuning) *Fretboard {
	fb := &Fretboard{tuning: t}
	for s := 0; s < Strings; s++ {
		fb.table[0][s] = pitch.Shift(t[s], 0)
		for f := 1; f < MaxFret; f++ {
			fb.table[f][s] = pitch.Shift(fb.table[f-1][s], 1)
		}
	}
	return fb
}

// Default returns a board in standard tuning.
func Default() *Fretboard {
	return Build(Standard)
}

// Lookup returns the pitch class at a position. It panics when fret or str
// is out of range; callers only pass in-window positions.
func (fb *Fretboard) Lookup(fret, str int) pitch.Class {
	if fret < 0 || fret >= MaxFret || str < 0 || str >= Strings {
		panic(fmt.Sprintf("fretboard: position (fret %d, string %d) out of range", fret, str))
	}
	return fb.table[fret][str]
}

// Tuning returns the open-string pitches the board was built from.
func (fb *Fretboard) Tuning() Tuning {
	return fb.tuning
}

// Retune builds a new board from exactly six open-string notes. The receiver
// is left untouched.
func (fb *Fretboard) Retune(notes []pitch.Class) (*Fretboard, error) {
	t, err := TuningFrom(notes)
	if err != nil {
		return nil, err
	}
	return Build(t), nil
}

// TuningFrom validates the note count and converts it to a Tuning.
func TuningFrom(notes []pitch.Class) (Tuning, error) {
	var t Tuning
	if len(notes) != Strings {
		return t, fmt.Errorf("%w: tuning requires exactly %d notes, found %d", ErrTuningLength, Strings, len(notes))
	}
	copy(t[:], notes)
	return t, nil
}

// ParseTuning reads six notes from free text such as "E A D G B E" or a
// tuning file spanning several lines. Repeated notes are kept.
func ParseTuning(text string) (Tuning, error) {
	var notes []pitch.Class
	for i := 0; i < len(text); i++ {
		letter := text[i]
		if !pitch.IsLetter(letter) {
			continue
		}
		var acc byte = ' '
		if i+1 < len(text) && (text[i+1] == '#' || text[i+1] == 'b') {
			i++
			acc = text[i]
		}
		c, err := pitch.ParseNote(letter, acc)
		if err != nil {
			return Tuning{}, err
		}
		notes = append(notes, c)
	}
	return TuningFrom(notes)
}
