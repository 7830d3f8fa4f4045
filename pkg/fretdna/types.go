package fretdna

import (
	"errors"
	"time"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/diagram"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

// ErrNoStorage is returned by library operations on a service opened
// without a database.
var ErrNoStorage = errors.New("no chord library configured")

// ErrInvalidInput marks errors caused by the caller's chord text or notes.
var ErrInvalidInput = errors.New("invalid input")

// Request is a single search. A zero Window means the service default;
// an empty Root means the first note of the chord. Nil Filters means the
// service filters.
type Request struct {
	Chord   string
	Target  chord.Target // used instead of parsing Chord when non-empty
	Window  search.Window
	Root    string
	Limit   int
	Filters *search.Filters
}

// Params apply to every line of a batch.
type Params struct {
	Window  search.Window
	Root    string
	Limit   int
	Filters *search.Filters
}

// Fingering is one solution with its renderings.
type Fingering struct {
	Frets   search.Solution `json:"frets"`
	Tab     string          `json:"tab"`
	Diagram diagram.Diagram `json:"diagram"`
	Marks   []diagram.Mark  `json:"marks"`
}

// Answer is the outcome of one chord search.
type Answer struct {
	Line       int           `json:"line,omitempty"`
	Chord      string        `json:"chord"`
	Target     chord.Target  `json:"target"`
	Root       pitch.Class   `json:"root"`
	Window     search.Window `json:"window"`
	Fingerings []Fingering   `json:"fingerings"`
	Total      int           `json:"total"`
	Examined   int           `json:"examined"`
	Truncated  bool          `json:"truncated"`
	Duration   time.Duration `json:"duration_ns"`
	Cached     bool          `json:"cached"`
}

// Chord is a library entry.
type Chord struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Notes     chord.Target `json:"notes"`
	Root      string       `json:"root,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
