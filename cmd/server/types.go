package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/diagram"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

// Request limits
const (
	// MaxBatchLines bounds POST /api/search/batch.
	MaxBatchLines = 256

	// MaxChordText bounds any chord text field.
	MaxChordText = 512
)

// SearchRequest is the request body for POST /api/search. FirstFret and
// Frets fall back to the server window when omitted; Filters falls back to
// the server filters.
type SearchRequest struct {
	Chord     string          `json:"chord"`
	FirstFret *int            `json:"first_fret,omitempty"`
	Frets     *int            `json:"frets,omitempty"`
	Root      string          `json:"root,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Filters   *search.Filters `json:"filters,omitempty"`
}

// Validate checks if the request is valid
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Chord) == "" {
		return fmt.Errorf("chord is required")
	}
	if len(r.Chord) > MaxChordText {
		return fmt.Errorf("chord too long: %d bytes (maximum: %d)", len(r.Chord), MaxChordText)
	}
	if r.Limit < 0 || r.Limit > search.MaxPatterns {
		return fmt.Errorf("limit must be between 0 and %d", search.MaxPatterns)
	}
	return nil
}

// Window merges the request's fret fields over def and validates the
// result. The service reads a zero window as its default, so an explicit
// zero must be rejected here.
func (r *SearchRequest) Window(def search.Window) (search.Window, error) {
	w := def
	if r.FirstFret != nil {
		w.First = *r.FirstFret
	}
	if r.Frets != nil {
		w.Length = *r.Frets
	}
	return w, w.Validate()
}

// SearchBatchRequest is the request body for POST /api/search/batch. Each
// entry is searched as its own chord.
type SearchBatchRequest struct {
	Chords    []string        `json:"chords"`
	FirstFret *int            `json:"first_fret,omitempty"`
	Frets     *int            `json:"frets,omitempty"`
	Root      string          `json:"root,omitempty"`
	Filters   *search.Filters `json:"filters,omitempty"`
}

// Validate checks if the request is valid
func (r *SearchBatchRequest) Validate() error {
	if len(r.Chords) == 0 {
		return fmt.Errorf("chords cannot be empty")
	}
	if len(r.Chords) > MaxBatchLines {
		return fmt.Errorf("too many chords: %d (maximum: %d)", len(r.Chords), MaxBatchLines)
	}
	for i, c := range r.Chords {
		if strings.ContainsAny(c, "\r\n") {
			return fmt.Errorf("chord %d spans several lines", i+1)
		}
	}
	return nil
}

func (r *SearchBatchRequest) Window(def search.Window) (search.Window, error) {
	sr := SearchRequest{FirstFret: r.FirstFret, Frets: r.Frets}
	return sr.Window(def)
}

// FingeringDTO is one fingering in API responses
type FingeringDTO struct {
	Frets   []int          `json:"frets"`
	Tab     string         `json:"tab"`
	Diagram []string       `json:"diagram"`
	Marks   []diagram.Mark `json:"marks"`
}

// SearchResponse is the response for one searched chord
type SearchResponse struct {
	Chord      string         `json:"chord"`
	Notes      []string       `json:"notes"`
	Root       string         `json:"root,omitempty"`
	FirstFret  int            `json:"first_fret"`
	Frets      int            `json:"frets"`
	Fingerings []FingeringDTO `json:"fingerings"`
	Count      int            `json:"count"`
	Total      int            `json:"total"`
	Truncated  bool           `json:"truncated"`
	Cached     bool           `json:"cached"`
	DurationUs int64          `json:"duration_us"`
}

// SearchBatchResponse is the response for POST /api/search/batch
type SearchBatchResponse struct {
	Results []SearchResponse `json:"results"`
	Count   int              `json:"count"`
}

func toSearchResponse(a *fretdna.Answer) SearchResponse {
	resp := SearchResponse{
		Chord:      a.Chord,
		Notes:      noteNames(a),
		FirstFret:  a.Window.First,
		Frets:      a.Window.Length,
		Fingerings: make([]FingeringDTO, len(a.Fingerings)),
		Count:      len(a.Fingerings),
		Total:      a.Total,
		Truncated:  a.Truncated,
		Cached:     a.Cached,
		DurationUs: a.Duration.Microseconds(),
	}
	if len(a.Target) > 0 {
		resp.Root = a.Root.String()
	}
	for i, f := range a.Fingerings {
		resp.Fingerings[i] = FingeringDTO{
			Frets:   f.Frets[:],
			Tab:     f.Tab,
			Diagram: f.Diagram.Lines,
			Marks:   f.Marks,
		}
	}
	return resp
}

func noteNames(a *fretdna.Answer) []string {
	names := make([]string, len(a.Target))
	for i, n := range a.Target {
		names[i] = n.String()
	}
	return names
}

// SaveChordRequest is the request body for POST /api/chords
type SaveChordRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
	Root  string `json:"root,omitempty"`
}

// Validate checks if the request is valid
func (r *SaveChordRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Notes) == "" {
		return fmt.Errorf("name and notes are required")
	}
	if len(r.Name) > MaxChordText || len(r.Notes) > MaxChordText {
		return fmt.Errorf("name or notes too long (maximum: %d bytes)", MaxChordText)
	}
	return nil
}

// ChordDTO represents a saved chord in API responses
type ChordDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Notes     []string `json:"notes"`
	Root      string   `json:"root,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func toChordDTO(c *fretdna.Chord) ChordDTO {
	notes := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		notes[i] = n.String()
	}
	return ChordDTO{
		ID:        c.ID,
		Name:      c.Name,
		Notes:     notes,
		Root:      c.Root,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListChordsResponse is the response for GET /api/chords
type ListChordsResponse struct {
	Chords []ChordDTO `json:"chords"`
	Count  int        `json:"count"`
}

// DeleteChordResponse is the response for DELETE /api/chords/{id}
type DeleteChordResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// TuningRequest is the request body for PUT /api/tuning
type TuningRequest struct {
	Notes string `json:"notes"`
}

// TuningResponse reports the open-string notes, low to high
type TuningResponse struct {
	Notes  []string `json:"notes"`
	Tuning string   `json:"tuning"`
}

// AuditionRequest is the request body for POST /api/audition
type AuditionRequest struct {
	Frets string `json:"frets"`
}

// Validate checks if the request is valid
func (r *AuditionRequest) Validate() (search.Solution, error) {
	if r.Frets == "" {
		return search.Solution{}, fmt.Errorf("frets is required")
	}
	return search.ParseSolution(r.Frets)
}

// DetectResponse is the response for POST /api/detect
type DetectResponse struct {
	Notes []string `json:"notes"`
	Chord string   `json:"chord"`
}

// MetricsResponse provides server health and library metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path,omitempty"`
	ChordCount   int    `json:"chord_count"`
	SampleRate   int    `json:"sample_rate"`
	Tuning       string `json:"tuning"`
	FirstFret    int    `json:"first_fret"`
	Frets        int    `json:"frets"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
