package fretdna

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/logger"
)

var openWindow = search.Window{First: 0, Length: 4}

func quietLogger() Logger {
	return logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})
}

func newTestService(t *testing.T, opts ...Option) Service {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	svc, err := NewService(opts...)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func newLibraryService(t *testing.T, opts ...Option) Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "library.sqlite3")
	return newTestService(t, append([]Option{WithDBPath(dbPath)}, opts...)...)
}

func TestFindCMajor(t *testing.T) {
	svc := newTestService(t)

	ans, err := svc.Find(context.Background(), Request{Chord: "C E G", Window: openWindow, Root: "C"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	var tabs []string
	for _, f := range ans.Fingerings {
		tabs = append(tabs, f.Tab)
	}
	if diff := cmp.Diff([]string{"332010", "332013", "032010", "032013"}, tabs); diff != "" {
		t.Errorf("tabs mismatch (-want +got):\n%s", diff)
	}
	if ans.Root != pitch.C || ans.Total != 4 || ans.Truncated {
		t.Errorf("unexpected answer header: root=%s total=%d truncated=%v", ans.Root, ans.Total, ans.Truncated)
	}
	for _, f := range ans.Fingerings {
		if got := f.Diagram.Lines[6][8:10]; got != "C " {
			t.Errorf("%s: expected C on the A string 3rd fret, got %q", f.Tab, got)
		}
		if f.Marks[1].Interval != "R" {
			t.Errorf("%s: A string should be the root, got %+v", f.Tab, f.Marks[1])
		}
	}
}

func TestFindDefaultsRootToFirstNote(t *testing.T) {
	svc := newTestService(t)
	ans, err := svc.Find(context.Background(), Request{Chord: "E G C", Window: openWindow})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if ans.Root != pitch.E {
		t.Errorf("expected root E, got %s", ans.Root)
	}
	// Low E string: open E is the root so it comes first.
	if ans.Fingerings[0].Frets[0] != 0 {
		t.Errorf("expected open low E first, got %s", ans.Fingerings[0].Tab)
	}
}

func TestFindUsesServiceWindow(t *testing.T) {
	svc := newTestService(t, WithWindow(search.Window{First: 5, Length: 3}))
	ans, err := svc.Find(context.Background(), Request{Chord: "A C# E"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if ans.Window != (search.Window{First: 5, Length: 3}) {
		t.Errorf("window = %+v", ans.Window)
	}
	if len(ans.Fingerings) == 0 {
		t.Fatal("expected fingerings")
	}
	if len(ans.Fingerings[0].Diagram.Lines) != 2+3*2 {
		t.Errorf("expected open rows plus 3 frets, got %d lines", len(ans.Fingerings[0].Diagram.Lines))
	}
}

func TestFindNoNotes(t *testing.T) {
	svc := newTestService(t)
	ans, err := svc.Find(context.Background(), Request{Chord: "123 xyz"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(ans.Fingerings) != 0 || ans.Total != 0 {
		t.Errorf("expected empty answer, got %+v", ans)
	}
}

func TestFindConfigErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Find(ctx, Request{Chord: "C E G", Root: "H"}); !errors.Is(err, pitch.ErrNoteLetter) {
		t.Errorf("expected ErrNoteLetter, got %v", err)
	}
	if _, err := svc.Find(ctx, Request{Chord: "C E G", Window: search.Window{First: 30, Length: 4}}); !errors.Is(err, search.ErrWindow) {
		t.Errorf("expected ErrWindow, got %v", err)
	}
	if _, err := NewService(WithWindow(search.Window{First: 0, Length: 0})); !errors.Is(err, search.ErrWindow) {
		t.Errorf("NewService: expected ErrWindow, got %v", err)
	}
}

func TestFindAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newTestService(t, WithWorkers(2))
	input := "C E G\n\n123\nA C E\nG B D\n"
	answers, err := svc.FindAll(context.Background(), strings.NewReader(input), Params{Window: openWindow})
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}

	var lines []int
	for _, a := range answers {
		lines = append(lines, a.Line)
	}
	if diff := cmp.Diff([]int{1, 4, 5}, lines); diff != "" {
		t.Errorf("answered lines mismatch (-want +got):\n%s", diff)
	}
	if answers[1].Root != pitch.A {
		t.Errorf("each line uses its own first note as root, got %s", answers[1].Root)
	}
}

func TestFindAllRejectsParamsUpFront(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.FindAll(ctx, strings.NewReader("C E G\nA C E\n"), Params{Window: openWindow, Root: "Q"})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, pitch.ErrNoteLetter) {
		t.Fatalf("expected invalid root, got %v", err)
	}
	if strings.Contains(err.Error(), "line") {
		t.Errorf("root error should not name a line: %v", err)
	}

	// Rejected before the reader is consumed.
	_, err = svc.FindAll(ctx, iotest.ErrReader(errors.New("unread")), Params{Root: "H"})
	if !errors.Is(err, pitch.ErrNoteLetter) {
		t.Errorf("expected ErrNoteLetter, got %v", err)
	}
	_, err = svc.FindAll(ctx, strings.NewReader("C E G\n"), Params{Window: search.Window{First: -1, Length: 4}})
	if !errors.Is(err, search.ErrWindow) {
		t.Errorf("expected ErrWindow, got %v", err)
	}
	_, err = svc.FindAll(ctx, strings.NewReader("C E G\n"), Params{Filters: &search.Filters{MaxSpan: -1}})
	if !errors.Is(err, search.ErrFilter) {
		t.Errorf("expected ErrFilter, got %v", err)
	}
}

func TestFindFilters(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t)
	ans, err := svc.Find(ctx, Request{Chord: "C E G", Window: openWindow, Filters: &search.Filters{MaxSpan: 1}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(ans.Fingerings) != 0 || ans.Total != 0 {
		t.Errorf("span 1 should reject every open C grip, got %d", ans.Total)
	}

	strict := newTestService(t, WithFilters(search.Filters{MaxSpan: 1}))
	ans, err = strict.Find(ctx, Request{Chord: "C E G", Window: openWindow})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if ans.Total != 0 {
		t.Errorf("service filters not applied, got %d", ans.Total)
	}
	ans, err = strict.Find(ctx, Request{Chord: "C E G", Window: openWindow, Filters: &search.Filters{}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if ans.Total != 4 {
		t.Errorf("request filters should override the service, got %d", ans.Total)
	}

	if _, err := NewService(WithFilters(search.Filters{MinSounding: 9})); !errors.Is(err, search.ErrFilter) {
		t.Errorf("NewService: expected ErrFilter, got %v", err)
	}
}

func TestRetune(t *testing.T) {
	svc := newTestService(t)
	before := svc.Fretboard()

	if err := svc.Retune("D A D G B E"); err != nil {
		t.Fatalf("Retune failed: %v", err)
	}
	if got := svc.Fretboard().Lookup(0, 0); got != pitch.D {
		t.Errorf("low string = %s, expected D", got)
	}
	if before.Lookup(0, 0) != pitch.E {
		t.Error("previous board was mutated")
	}

	if err := svc.Retune("E A D"); !errors.Is(err, fretboard.ErrTuningLength) {
		t.Errorf("expected ErrTuningLength, got %v", err)
	}
	if got := svc.Fretboard().Lookup(0, 0); got != pitch.D {
		t.Errorf("failed retune changed the board: %s", got)
	}
}

func TestLibraryRequiresStorage(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ListChords(); !errors.Is(err, ErrNoStorage) {
		t.Errorf("expected ErrNoStorage, got %v", err)
	}
	if _, err := svc.SaveChord("C", "C E G", ""); !errors.Is(err, ErrNoStorage) {
		t.Errorf("expected ErrNoStorage, got %v", err)
	}
	if _, err := svc.ClearCache(); !errors.Is(err, ErrNoStorage) {
		t.Errorf("expected ErrNoStorage, got %v", err)
	}
}

func TestChordLibrary(t *testing.T) {
	svc := newLibraryService(t)

	saved, err := svc.SaveChord("Am7", "A C E G", "a")
	if err != nil {
		t.Fatalf("SaveChord failed: %v", err)
	}
	if saved.Root != "A" || saved.Notes.String() != "A C E G" {
		t.Errorf("unexpected saved chord: %+v", saved)
	}

	byName, err := svc.GetChord("Am7")
	if err != nil || byName.ID != saved.ID {
		t.Errorf("GetChord by name = %+v, %v", byName, err)
	}

	if _, err := svc.SaveChord("empty", "123", ""); err == nil {
		t.Error("expected error for chord without notes")
	}

	list, err := svc.ListChords()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListChords = %v, %v", list, err)
	}
	if err := svc.DeleteChord(saved.ID); err != nil {
		t.Fatalf("DeleteChord failed: %v", err)
	}
	if _, err := svc.GetChord(saved.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestShapeCache(t *testing.T) {
	svc := newLibraryService(t, WithCache(true))
	req := Request{Chord: "C E G", Window: openWindow, Root: "C"}

	first, err := svc.Find(context.Background(), req)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	second, err := svc.Find(context.Background(), req)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("expected miss then hit, got %v then %v", first.Cached, second.Cached)
	}
	if diff := cmp.Diff(first.Fingerings, second.Fingerings); diff != "" {
		t.Errorf("cached fingerings differ (-fresh +cached):\n%s", diff)
	}

	filtered := req
	filtered.Filters = &search.Filters{MaxSpan: 5}
	ans, err := svc.Find(context.Background(), filtered)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Cached {
		t.Error("filtered search must not hit the unfiltered entry")
	}

	if err := svc.Retune("D A D G B E"); err != nil {
		t.Fatal(err)
	}
	third, err := svc.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Error("a new tuning must not hit the old cache entry")
	}

	n, err := svc.ClearCache()
	if err != nil || n != 3 {
		t.Fatalf("ClearCache = %d, %v; expected 3 entries", n, err)
	}
	again, err := svc.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if again.Cached {
		t.Error("search after ClearCache should miss")
	}
}

func TestAuditionAndDetect(t *testing.T) {
	svc := newTestService(t)
	path := filepath.Join(t.TempDir(), "c.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Audition(context.Background(), search.Solution{search.Muted, 3, 2, 0, 1, 0}, f); err != nil {
		t.Fatalf("Audition failed: %v", err)
	}
	f.Close()

	got, err := svc.Detect(context.Background(), path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for _, want := range []pitch.Class{pitch.C, pitch.E, pitch.G} {
		if !got.Contains(want) {
			t.Errorf("detected %v, missing %s", got, want)
		}
	}
}
