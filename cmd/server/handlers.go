package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/FretDNA/pkg/fretdna"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/audio"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/storage"
	"github.com/himanishpuri/FretDNA/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service fretdna.Service
	config  *ServerConfig
	log     fretdna.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	Window         search.Window
	AllowedOrigins []string
	AccessLog      bool
}

// NewServer creates a new server instance
func NewServer(service fretdna.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps a service error onto a status code.
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Errorf("Failed to %s: %v", action, err)
	}
	s.respondError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fretdna.ErrNoStorage):
		return http.StatusServiceUnavailable
	case errors.Is(err, fretdna.ErrInvalidInput),
		errors.Is(err, search.ErrWindow),
		errors.Is(err, search.ErrFilter),
		errors.Is(err, pitch.ErrNoteLetter),
		errors.Is(err, fretboard.ErrTuningLength),
		errors.Is(err, audio.ErrSilent):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "FretDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"search":      "POST /api/search",
			"searchBatch": "POST /api/search/batch",
			"chords":      "GET /api/chords",
			"saveChord":   "POST /api/chords",
			"getChord":    "GET /api/chords/{id}",
			"deleteChord": "DELETE /api/chords/{id}",
			"fingerings":  "GET /api/chords/{id}/fingerings",
			"tuning":      "GET /api/tuning",
			"retune":      "PUT /api/tuning",
			"audition":    "POST /api/audition",
			"detect":      "POST /api/detect",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	count := 0
	chords, err := s.service.ListChords()
	switch {
	case err == nil:
		count = len(chords)
	case !errors.Is(err, fretdna.ErrNoStorage):
		s.log.Errorf("Failed to get chord count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		ChordCount:   count,
		SampleRate:   s.config.SampleRate,
		Tuning:       s.service.Fretboard().Tuning().String(),
		FirstFret:    s.config.Window.First,
		Frets:        s.config.Window.Length,
	})
}

// handleSearch handles POST /api/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, err := req.Window(s.config.Window)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ans, err := s.service.Find(ctx, fretdna.Request{
		Chord:   req.Chord,
		Window:  win,
		Root:    req.Root,
		Limit:   req.Limit,
		Filters: req.Filters,
	})
	if err != nil {
		s.respondServiceError(w, "search", err)
		return
	}

	s.log.Infof("Search %q: %d fingerings (%d total)", req.Chord, len(ans.Fingerings), ans.Total)
	s.respondJSON(w, http.StatusOK, toSearchResponse(ans))
}

// handleSearchBatch handles POST /api/search/batch
func (s *Server) handleSearchBatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req SearchBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, err := req.Window(s.config.Window)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	answers, err := s.service.FindAll(ctx, strings.NewReader(strings.Join(req.Chords, "\n")), fretdna.Params{
		Window:  win,
		Root:    req.Root,
		Filters: req.Filters,
	})
	if err != nil {
		s.respondServiceError(w, "search batch", err)
		return
	}

	results := make([]SearchResponse, len(answers))
	for i := range answers {
		results[i] = toSearchResponse(&answers[i])
	}
	s.log.Infof("Batch search: %d of %d chords answered", len(results), len(req.Chords))
	s.respondJSON(w, http.StatusOK, SearchBatchResponse{Results: results, Count: len(results)})
}

// handleListChords handles GET /api/chords
func (s *Server) handleListChords(w http.ResponseWriter, r *http.Request) {
	chords, err := s.service.ListChords()
	if err != nil {
		s.respondServiceError(w, "list chords", err)
		return
	}

	dtos := make([]ChordDTO, len(chords))
	for i := range chords {
		dtos[i] = toChordDTO(&chords[i])
	}
	s.respondJSON(w, http.StatusOK, ListChordsResponse{Chords: dtos, Count: len(dtos)})
}

// handleSaveChord handles POST /api/chords
func (s *Server) handleSaveChord(w http.ResponseWriter, r *http.Request) {
	var req SaveChordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.service.SaveChord(strings.TrimSpace(req.Name), req.Notes, req.Root)
	if err != nil {
		s.respondServiceError(w, "save chord", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toChordDTO(c))
}

// handleGetChord handles GET /api/chords/{id}
func (s *Server) handleGetChord(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.service.GetChord(id)
	if err != nil {
		s.respondServiceError(w, "get chord", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toChordDTO(c))
}

// handleDeleteChord handles DELETE /api/chords/{id}
func (s *Server) handleDeleteChord(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.service.GetChord(id)
	if err != nil {
		s.respondServiceError(w, "find chord for deletion", err)
		return
	}
	if err := s.service.DeleteChord(c.ID); err != nil {
		s.respondServiceError(w, "delete chord", err)
		return
	}

	s.log.Infof("Deleted chord: %s (ID: %s)", c.Name, c.ID)
	s.respondJSON(w, http.StatusOK, DeleteChordResponse{
		Message: "Chord deleted successfully",
		ID:      c.ID,
	})
}

// handleChordFingerings handles GET /api/chords/{id}/fingerings. The
// first_fret, frets and root query parameters override the defaults.
func (s *Server) handleChordFingerings(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.service.GetChord(id)
	if err != nil {
		s.respondServiceError(w, "get chord", err)
		return
	}

	q := r.URL.Query()
	win := s.config.Window
	for name, dst := range map[string]*int{"first_fret": &win.First, "frets": &win.Length} {
		if v := q.Get(name); v != "" {
			if _, err := fmt.Sscan(v, dst); err != nil {
				s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, v))
				return
			}
		}
	}
	if err := win.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	root := c.Root
	if v := q.Get("root"); v != "" {
		root = v
	}

	ans, err := s.service.Find(r.Context(), fretdna.Request{Chord: c.Name, Target: c.Notes, Window: win, Root: root})
	if err != nil {
		s.respondServiceError(w, "search chord", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toSearchResponse(ans))
}

// handleGetTuning handles GET /api/tuning
func (s *Server) handleGetTuning(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, tuningResponse(s.service.Fretboard().Tuning()))
}

// handlePutTuning handles PUT /api/tuning
func (s *Server) handlePutTuning(w http.ResponseWriter, r *http.Request) {
	var req TuningRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.service.Retune(req.Notes); err != nil {
		s.respondServiceError(w, "retune", err)
		return
	}
	s.respondJSON(w, http.StatusOK, tuningResponse(s.service.Fretboard().Tuning()))
}

func tuningResponse(t fretboard.Tuning) TuningResponse {
	notes := make([]string, len(t))
	for i, n := range t {
		notes[i] = n.String()
	}
	return TuningResponse{Notes: notes, Tuning: t.String()}
}

// handleAudition handles POST /api/audition and streams back a WAV file
func (s *Server) handleAudition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req AuditionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sol, err := req.Validate()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmp, err := os.CreateTemp(s.config.TempDir, "audition_*.wav")
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to render audio")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := s.service.Audition(ctx, sol, tmp); err != nil {
		s.respondServiceError(w, "audition", err)
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to render audio")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sol.String()+".wav"))
	http.ServeContent(w, r, sol.String()+".wav", time.Now(), tmp)
}

// handleDetect handles POST /api/detect (multipart WAV upload)
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	// Parse multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("detect_%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	_, err = io.Copy(out, file)
	out.Close()
	if err != nil {
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}

	target, err := s.service.Detect(ctx, tempFile)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes := make([]string, len(target))
	for i, n := range target {
		notes[i] = n.String()
	}
	s.log.Infof("Detected %s in %s", target, header.Filename)
	s.respondJSON(w, http.StatusOK, DetectResponse{Notes: notes, Chord: target.String()})
}

// handleSearchRoute routes requests to /api/search
func (s *Server) handleSearchRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleSearch(w, r)
}

// handleSearchBatchRoute routes requests to /api/search/batch
func (s *Server) handleSearchBatchRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleSearchBatch(w, r)
}

// handleChords routes requests to /api/chords
func (s *Server) handleChords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListChords(w, r)
	case http.MethodPost:
		s.handleSaveChord(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleChord routes requests to /api/chords/{id} and /api/chords/{id}/fingerings
func (s *Server) handleChord(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/chords/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Chord ID required")
		return
	}

	switch {
	case sub == "fingerings" && r.Method == http.MethodGet:
		s.handleChordFingerings(w, r, id)
	case sub != "":
		http.NotFound(w, r)
	case r.Method == http.MethodGet:
		s.handleGetChord(w, r, id)
	case r.Method == http.MethodDelete:
		s.handleDeleteChord(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTuning routes requests to /api/tuning
func (s *Server) handleTuning(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetTuning(w, r)
	case http.MethodPut:
		s.handlePutTuning(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAuditionRoute routes requests to /api/audition
func (s *Server) handleAuditionRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleAudition(w, r)
}

// handleDetectRoute routes requests to /api/detect
func (s *Server) handleDetectRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleDetect(w, r)
}
