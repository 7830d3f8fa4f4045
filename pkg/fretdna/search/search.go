// Package search enumerates the ways a chord can be fingered inside a fret
// window.
//
// Candidate frets are collected per string, the three bass strings are
// reordered so frets sounding the root come first, and the cartesian product
// of the six lists is walked with string 0 outermost. An assignment is kept
// when its sounding strings cover every target pitch class and it passes the
// optional playability filters of the Query. At most
// Query.Limit solutions are kept, but the walk always completes so the total
// number of qualifying assignments is known.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
)

const (
	// MaxPatterns caps the number of solutions returned by one search.
	MaxPatterns = 100
	// bassStrings is how many of the lowest strings get root-first ordering.
	bassStrings = 3
	// checkEvery is how many assignments are visited between context checks.
	checkEvery = 4096
)

// ErrFilter is returned for playability filters out of range.
var ErrFilter = errors.New("invalid playability filter")

// Query describes one search.
type Query struct {
	Target chord.Target
	Window Window
	// Root is used only when RootSet is true; otherwise the first target
	// note is the root.
	Root    pitch.Class
	RootSet bool
	// Limit overrides MaxPatterns when in (0, MaxPatterns).
	Limit   int
	Filters Filters
}

// Filters reject grips that cover the chord but are awkward to play. They
// apply before the cap, so filtered grips do not use up MaxPatterns. The
// zero value disables every filter.
type Filters struct {
	// MinSounding rejects grips with fewer non-muted strings.
	MinSounding int `json:"min_strings,omitempty"`
	// RequireRoot rejects grips on which the root does not sound.
	RequireRoot bool `json:"require_root,omitempty"`
	// MaxSpan rejects grips whose fretted notes (fret > 0) are more than
	// MaxSpan frets apart.
	MaxSpan int `json:"max_span,omitempty"`
}

// Validate rejects limits outside their range.
func (f Filters) Validate() error {
	if f.MinSounding < 0 || f.MinSounding > fretboard.Strings {
		return fmt.Errorf("%w: min strings must be in [0,%d], got %d", ErrFilter, fretboard.Strings, f.MinSounding)
	}
	if f.MaxSpan < 0 {
		return fmt.Errorf("%w: max span must be >= 0, got %d", ErrFilter, f.MaxSpan)
	}
	return nil
}

// RootNote resolves the root for the query.
func (q Query) RootNote() pitch.Class {
	if q.RootSet || len(q.Target) == 0 {
		return q.Root
	}
	return q.Target[0]
}

func (q Query) limit() int {
	if q.Limit > 0 && q.Limit < MaxPatterns {
		return q.Limit
	}
	return MaxPatterns
}

// Candidates holds the ordered fret choices for each string.
type Candidates [fretboard.Strings][]int

// Result is the outcome of a search.
type Result struct {
	Solutions []Solution `json:"solutions" msgpack:"solutions"`
	// Total counts every qualifying assignment, including those past the cap.
	Total int `json:"total" msgpack:"total"`
	// Examined counts every assignment visited.
	Examined   int           `json:"examined" msgpack:"examined"`
	Candidates Candidates    `json:"candidates" msgpack:"candidates"`
	Duration   time.Duration `json:"duration_ns" msgpack:"duration"`
}

// Truncated reports whether qualifying solutions were dropped by the cap.
func (r Result) Truncated() bool {
	return r.Total > len(r.Solutions)
}

// Find runs a search. The window must be valid; an empty target returns an
// empty result. ctx is polled during enumeration.
func Find(ctx context.Context, fb *fretboard.Fretboard, q Query) (Result, error) {
	start := time.Now()
	if err := q.Window.Validate(); err != nil {
		return Result{}, err
	}
	if err := q.Filters.Validate(); err != nil {
		return Result{}, err
	}
	if len(q.Target) == 0 {
		return Result{Solutions: []Solution{}}, nil
	}

	cands := CandidatesFor(fb, q.Target, q.Window)
	root := q.RootNote()
	for s := 0; s < bassStrings; s++ {
		cands[s] = RootFirst(fb, s, cands[s], root)
	}

	e := enumerator{
		ctx:         ctx,
		fb:          fb,
		cands:       &cands,
		want:        maskOf(q.Target),
		limit:       q.limit(),
		res:         Result{Solutions: []Solution{}, Candidates: cands},
		minSounding: q.Filters.MinSounding,
		maxSpan:     q.Filters.MaxSpan,
	}
	if q.Filters.RequireRoot {
		e.root = 1 << root
	}
	if err := e.walk(0, 0); err != nil {
		return Result{}, err
	}
	e.res.Duration = time.Since(start)
	return e.res, nil
}

// CandidatesFor collects, per string, the frets whose pitch is in target.
// Fret 0 is tested first when the window starts above it. A string with no
// match gets the single choice Muted.
func CandidatesFor(fb *fretboard.Fretboard, target chord.Target, w Window) Candidates {
	var cands Candidates
	last := w.Last()
	for s := 0; s < fretboard.Strings; s++ {
		var list []int
		if w.First > 0 && target.Contains(fb.Lookup(0, s)) {
			list = append(list, 0)
		}
		for f := w.First; f <= last; f++ {
			if target.Contains(fb.Lookup(f, s)) {
				list = append(list, f)
			}
		}
		if len(list) == 0 {
			list = []int{Muted}
		}
		cands[s] = list
	}
	return cands
}

// RootFirst moves the frets of string s that sound root to the front, in
// their original order, and the remaining frets to the back in reverse
// order. The input slice is not modified.
func RootFirst(fb *fretboard.Fretboard, s int, frets []int, root pitch.Class) []int {
	out := make([]int, len(frets))
	front, back := 0, len(frets)-1
	for _, f := range frets {
		if f != Muted && fb.Lookup(f, s) == root {
			out[front] = f
			front++
		} else {
			out[back] = f
			back--
		}
	}
	return out
}

type enumerator struct {
	ctx   context.Context
	fb    *fretboard.Fretboard
	cands *Candidates
	want  uint16
	limit int
	cur   Solution
	res   Result

	minSounding int
	maxSpan     int
	root        uint16
}

func (e *enumerator) walk(s int, have uint16) error {
	if s == fretboard.Strings {
		e.res.Examined++
		if e.res.Examined%checkEvery == 0 {
			if err := e.ctx.Err(); err != nil {
				return err
			}
		}
		if have&e.want != e.want || !e.playable(have) {
			return nil
		}
		e.res.Total++
		if len(e.res.Solutions) < e.limit {
			e.res.Solutions = append(e.res.Solutions, e.cur)
		}
		return nil
	}

	for _, f := range e.cands[s] {
		e.cur[s] = f
		next := have
		if f != Muted {
			next |= 1 << e.fb.Lookup(f, s)
		}
		if err := e.walk(s+1, next); err != nil {
			return err
		}
	}
	return nil
}

// playable applies the Query filters to the current assignment.
func (e *enumerator) playable(have uint16) bool {
	if have&e.root != e.root {
		return false
	}
	if e.minSounding > 0 && e.cur.Sounding() < e.minSounding {
		return false
	}
	return e.maxSpan <= 0 || e.cur.Span() <= e.maxSpan
}

func maskOf(target chord.Target) uint16 {
	var m uint16
	for _, c := range target {
		m |= 1 << c
	}
	return m
}
