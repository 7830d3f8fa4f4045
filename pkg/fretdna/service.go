package fretdna

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/audio"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/chroma"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/diagram"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/storage"
	"github.com/himanishpuri/FretDNA/pkg/logger"
)

// fretService is the default implementation of the Service interface.
type fretService struct {
	storage Storage
	log     Logger
	config  *Config
	// board is replaced whole on retune; searches keep the board they loaded.
	board atomic.Pointer[fretboard.Fretboard]
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Filters.Validate(); err != nil {
		return nil, err
	}

	stor := cfg.Storage
	if stor == nil && cfg.DBPath != "" {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	s := &fretService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}
	s.board.Store(fretboard.Build(cfg.Tuning))
	return s, nil
}

// Fretboard returns the board new searches will use.
func (s *fretService) Fretboard() *fretboard.Fretboard {
	return s.board.Load()
}

// Retune parses six notes from text and publishes a new board.
func (s *fretService) Retune(text string) error {
	t, err := fretboard.ParseTuning(text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.board.Store(fretboard.Build(t))
	s.log.Infof("Retuned to %s", t)
	return nil
}

// Find parses the chord, searches the current board and renders every
// solution. Text with no notes gives an answer with no fingerings.
func (s *fretService) Find(ctx context.Context, req Request) (*Answer, error) {
	fb := s.board.Load()

	target := req.Target
	if len(target) == 0 {
		target = chord.Parse(req.Chord)
	}
	w := req.Window
	if w == (search.Window{}) {
		w = s.config.Window
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if req.Filters != nil {
		if err := req.Filters.Validate(); err != nil {
			return nil, err
		}
	}

	ans := &Answer{Chord: strings.TrimSpace(req.Chord), Target: target, Window: w, Fingerings: []Fingering{}}
	if len(target) == 0 {
		return ans, nil
	}

	q := search.Query{Target: target, Window: w, Limit: req.Limit, Filters: s.config.Filters}
	if req.Filters != nil {
		q.Filters = *req.Filters
	}
	if req.Root != "" {
		root, err := parseRoot(req.Root)
		if err != nil {
			return nil, err
		}
		q.Root, q.RootSet = root, true
	}
	ans.Root = q.RootNote()

	res, cached, err := s.search(ctx, fb, q)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("%s: %d candidates examined, %d qualify, %d kept (%s)", target, res.Examined, res.Total, len(res.Solutions), w)
	if res.Truncated() {
		s.log.Debugf("%s: can only make %d patterns", target, len(res.Solutions))
	}

	ans.Total = res.Total
	ans.Examined = res.Examined
	ans.Truncated = res.Truncated()
	ans.Duration = res.Duration
	ans.Cached = cached
	for _, sol := range res.Solutions {
		ans.Fingerings = append(ans.Fingerings, Fingering{
			Frets:   sol,
			Tab:     sol.String(),
			Diagram: diagram.Render(fb, sol, w),
			Marks:   diagram.Marks(fb, sol, w, ans.Root),
		})
	}
	return ans, nil
}

// search consults the shape cache when enabled. Cache failures are logged
// and fall back to a fresh search.
func (s *fretService) search(ctx context.Context, fb *fretboard.Fretboard, q search.Query) (search.Result, bool, error) {
	useCache := s.config.Cache && s.storage != nil
	var key string
	if useCache {
		limit := q.Limit
		if limit <= 0 || limit > search.MaxPatterns {
			limit = search.MaxPatterns
		}
		key = storage.CacheKey(fb.Tuning(), q.Target, q.Window, q.RootNote(), limit, q.Filters)
		res, ok, err := s.storage.GetShape(key)
		if err != nil {
			s.log.Warnf("Shape cache lookup failed: %v", err)
		} else if ok {
			return res, true, nil
		}
	}

	res, err := search.Find(ctx, fb, q)
	if err != nil {
		return res, false, err
	}
	if useCache {
		if err := s.storage.PutShape(key, res); err != nil {
			s.log.Warnf("Shape cache store failed: %v", err)
		}
	}
	return res, false, nil
}

func parseRoot(text string) (pitch.Class, error) {
	root, err := pitch.Parse(text)
	if err != nil {
		return 0, fmt.Errorf("%w: root %q: %w", ErrInvalidInput, text, err)
	}
	return root, nil
}

// FindAll searches one chord per line. Lines are independent and run in
// parallel; answers come back in input order and lines without notes are
// skipped. Params are checked once before any line is read, so a bad root
// or window fails the batch without naming a line.
func (s *fretService) FindAll(ctx context.Context, r io.Reader, p Params) ([]Answer, error) {
	if p.Root != "" {
		if _, err := parseRoot(p.Root); err != nil {
			return nil, err
		}
	}
	if p.Window != (search.Window{}) {
		if err := p.Window.Validate(); err != nil {
			return nil, err
		}
	}
	if p.Filters != nil {
		if err := p.Filters.Validate(); err != nil {
			return nil, err
		}
	}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading chords: %w", err)
	}

	answers := make([]*Answer, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, line := range lines {
		if len(chord.Parse(line)) == 0 {
			continue
		}
		i, line := i, line
		g.Go(func() error {
			ans, err := s.Find(gctx, Request{Chord: line, Window: p.Window, Root: p.Root, Limit: p.Limit, Filters: p.Filters})
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			ans.Line = i + 1
			answers[i] = ans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Answer, 0, len(answers))
	for _, a := range answers {
		if a != nil {
			out = append(out, *a)
		}
	}
	s.log.Debugf("Answered %d of %d lines", len(out), len(lines))
	return out, nil
}

func (s *fretService) SaveChord(name, notes, root string) (*Chord, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	target := chord.Parse(notes)
	if len(target) == 0 {
		return nil, fmt.Errorf("%w: chord %q has no notes in %q", ErrInvalidInput, name, notes)
	}
	if root != "" {
		r, err := pitch.Parse(root)
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", root, err)
		}
		root = r.String()
	}
	id, err := s.storage.SaveChord(name, target.String(), root)
	if err != nil {
		return nil, fmt.Errorf("failed to save chord: %w", err)
	}
	s.log.Infof("Saved chord %q (%s) id=%s", name, target, id)
	return s.storage.GetChord(id)
}

// GetChord looks a chord up by id, then by name.
func (s *fretService) GetChord(idOrName string) (*Chord, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	c, err := s.storage.GetChord(idOrName)
	if errors.Is(err, storage.ErrNotFound) {
		return s.storage.GetChordByName(idOrName)
	}
	return c, err
}

func (s *fretService) ListChords() ([]Chord, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.ListChords()
}

func (s *fretService) DeleteChord(id string) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	return s.storage.DeleteChord(id)
}

// ClearCache drops every cached search result and reports how many were
// removed. It works whether or not caching is enabled for this service.
func (s *fretService) ClearCache() (int64, error) {
	if s.storage == nil {
		return 0, ErrNoStorage
	}
	n, err := s.storage.ClearShapes()
	if err != nil {
		return 0, err
	}
	s.log.Infof("Cleared %d cached searches", n)
	return n, nil
}

// Audition writes a strummed WAV of sol on the current board.
func (s *fretService) Audition(ctx context.Context, sol search.Solution, w io.WriteSeeker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := audio.DefaultStrumConfig()
	cfg.SampleRate = s.config.SampleRate
	samples, err := audio.Strum(s.board.Load(), sol, cfg)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(w, samples, cfg.SampleRate); err != nil {
		return err
	}
	s.log.Debugf("Auditioned %s: %d samples at %d Hz", sol, len(samples), cfg.SampleRate)
	return nil
}

// Detect estimates the pitch classes sounding in a WAV file.
func (s *fretService) Detect(ctx context.Context, wavPath string) (chord.Target, error) {
	samples, sr, err := audio.ReadWavAsFloat64(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := chroma.Detect(samples, sr)
	if err != nil {
		return nil, fmt.Errorf("chroma detection failed: %w", err)
	}
	s.log.Infof("Detected %s in %s", target, wavPath)
	return target, nil
}

// Close releases the chord library, if any.
func (s *fretService) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}
