// Package diagram draws fingering solutions onto a text fretboard grid.
package diagram

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

// Grid geometry. Fret f is drawn on row 2f; row 0 carries open and muted
// strings. String s occupies columns 5+3s and 6+3s.
const (
	Rows      = 2*(fretboard.MaxFret-1) + 1
	Cols      = 22
	noteCol   = 5
	noteStep  = 3
	fretStep  = 2
	mutedMark = "X "
)

// template is never written to; Render copies it.
var template = buildTemplate()

func buildTemplate() [Rows][Cols]byte {
	var g [Rows][Cols]byte
	for r := range g {
		var line string
		switch {
		case r == 0:
			line = strings.Repeat(" ", Cols)
		case r%2 == 1:
			line = "    -+--+--+--+--+--+-"
		default:
			line = fmt.Sprintf("%2d   |  |  |  |  |  | ", r/fretStep)
		}
		copy(g[r][:], line)
	}
	return g
}

// Diagram is the visible part of one rendered solution.
type Diagram struct {
	Lines []string `json:"lines"`
}

func (d Diagram) String() string {
	return strings.Join(d.Lines, "\n")
}

// Render draws sol on a fresh copy of the template and returns the rows
// visible for w. When the window does not start at fret 0 the open-string
// row and the nut line are shown above it.
func Render(fb *fretboard.Fretboard, sol search.Solution, w search.Window) Diagram {
	grid := template
	for s, f := range sol {
		col := noteCol + s*noteStep
		row := 0
		var label string
		switch {
		case f == search.Muted:
			label = mutedMark
		case f == 0:
			label = fb.Lookup(0, s).Label()
		default:
			row = f * fretStep
			label = fb.Lookup(f, s).Label()
		}
		copy(grid[row][col:col+2], label)
	}

	var lines []string
	if w.First != 0 {
		lines = append(lines, string(grid[0][:]), string(grid[1][:]))
	}
	for r := w.First * fretStep; r < (w.Last()+1)*fretStep && r < Rows; r++ {
		lines = append(lines, string(grid[r][:]))
	}
	return Diagram{Lines: lines}
}

// Header is the caption printed above the k-th of n diagrams (k from 1).
func Header(k, n int) string {
	return fmt.Sprintf("chord fingering #%d of %d", k, n)
}

// State describes how a string is played.
type State string

const (
	StateMuted   State = "muted"
	StateOpen    State = "open"
	StateFretted State = "fretted"
)

// Mark is the per-string view of a solution for structured consumers.
type Mark struct {
	String int   `json:"string"`
	State  State `json:"state"`
	// Fret is the absolute fret; Position counts from 1 at the window's
	// lowest fretted position. Both are zero for muted and open strings.
	Fret     int    `json:"fret"`
	Position int    `json:"position,omitempty"`
	Note     string `json:"note,omitempty"`
	Interval string `json:"interval,omitempty"`
}

// Marks lists one Mark per string, low to high.
func Marks(fb *fretboard.Fretboard, sol search.Solution, w search.Window, root pitch.Class) []Mark {
	marks := make([]Mark, 0, len(sol))
	for s, f := range sol {
		m := Mark{String: s}
		switch {
		case f == search.Muted:
			m.State = StateMuted
		case f == 0:
			m.State = StateOpen
		default:
			m.State = StateFretted
			m.Fret = f
			m.Position = f - max(w.First, 1) + 1
		}
		if f != search.Muted {
			c := fb.Lookup(f, s)
			m.Note = c.String()
			m.Interval = pitch.Interval(root, c)
		}
		marks = append(marks, m)
	}
	return marks
}
