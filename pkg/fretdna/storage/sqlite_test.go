package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

func setupTestDB(t *testing.T) *DBClient {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_fretdna.sqlite3")
	t.Setenv("FRETDNA_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file was not created at %s: %v", dbPath, err)
	}
	return client
}

func TestNewDBClientWithNestedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "chords.db")
	client, err := NewDBClientWithPath(path)
	if err != nil {
		t.Fatalf("NewDBClientWithPath failed: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected database at %s: %v", path, err)
	}
}

func TestSaveAndGetChord(t *testing.T) {
	client := setupTestDB(t)

	id, err := client.SaveChord("C major", "C E G", "C")
	if err != nil {
		t.Fatalf("SaveChord failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected uuid id, got %q", id)
	}

	got, err := client.GetChord(id)
	if err != nil {
		t.Fatalf("GetChord failed: %v", err)
	}
	if got.Name != "C major" || got.Notes != "C E G" || got.Root != "C" {
		t.Errorf("unexpected chord: %+v", got)
	}

	byName, err := client.GetChordByName("  C major ")
	if err != nil || byName.ID != id {
		t.Errorf("GetChordByName = %+v, %v", byName, err)
	}
}

func TestSaveChordReplacesByName(t *testing.T) {
	client := setupTestDB(t)

	first, err := client.SaveChord("shell", "C E", "C")
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.SaveChord("shell", "C E Bb", "C")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected same id on update, got %s and %s", first, second)
	}

	got, err := client.GetChord(first)
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes != "C E Bb" {
		t.Errorf("notes not updated: %q", got.Notes)
	}
}

func TestSaveChordRequiresName(t *testing.T) {
	client := setupTestDB(t)
	if _, err := client.SaveChord("  ", "C E G", ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestListAndDeleteChords(t *testing.T) {
	client := setupTestDB(t)

	for _, name := range []string{"G", "A minor", "D7"} {
		if _, err := client.SaveChord(name, "A", ""); err != nil {
			t.Fatal(err)
		}
	}

	chords, err := client.ListChords()
	if err != nil {
		t.Fatalf("ListChords failed: %v", err)
	}
	var names []string
	for _, c := range chords {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"A minor", "D7", "G"}, names); diff != "" {
		t.Errorf("ListChords order mismatch (-want +got):\n%s", diff)
	}

	if err := client.DeleteChord(chords[0].ID); err != nil {
		t.Fatalf("DeleteChord failed: %v", err)
	}
	if _, err := client.GetChord(chords[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := client.DeleteChord(chords[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *DBClient
	if _, err := client.ListChords(); err == nil {
		t.Error("expected error from nil client")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client: %v", err)
	}
}

func TestShapeCache(t *testing.T) {
	client := setupTestDB(t)

	target := chord.Target{pitch.C, pitch.E, pitch.G}
	w := search.Window{First: 0, Length: 4}
	key := CacheKey(fretboard.Standard, target, w, pitch.C, search.MaxPatterns, search.Filters{})

	if _, ok, err := client.GetShape(key); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	res := search.Result{
		Solutions: []search.Solution{{3, 3, 2, 0, 1, 0}, {search.Muted, 3, 2, 0, 1, 0}},
		Total:     2,
		Examined:  4,
	}
	res.Candidates[0] = []int{3, 0}
	if err := client.PutShape(key, res); err != nil {
		t.Fatalf("PutShape failed: %v", err)
	}
	res.Total = 3
	if err := client.PutShape(key, res); err != nil {
		t.Fatalf("PutShape overwrite failed: %v", err)
	}

	got, ok, err := client.GetShape(key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(res.Solutions, got.Solutions); diff != "" {
		t.Errorf("cached solutions mismatch (-want +got):\n%s", diff)
	}
	if got.Total != 3 || got.Examined != 4 {
		t.Errorf("cached counters = %d/%d", got.Total, got.Examined)
	}
	if diff := cmp.Diff([]int{3, 0}, got.Candidates[0]); diff != "" {
		t.Errorf("cached candidates mismatch (-want +got):\n%s", diff)
	}

	n, err := client.ClearShapes()
	if err != nil || n != 1 {
		t.Errorf("ClearShapes = %d, %v", n, err)
	}
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	target := chord.Target{pitch.C, pitch.E, pitch.G}
	w := search.Window{First: 0, Length: 4}
	base := CacheKey(fretboard.Standard, target, w, pitch.C, 100, search.Filters{})

	others := []string{
		CacheKey(fretboard.Standard, target, w, pitch.E, 100, search.Filters{}),
		CacheKey(fretboard.Standard, target, search.Window{First: 1, Length: 4}, pitch.C, 100, search.Filters{}),
		CacheKey(fretboard.Standard, chord.Target{pitch.E, pitch.C, pitch.G}, w, pitch.C, 100, search.Filters{}),
		CacheKey(fretboard.Tuning{pitch.D, pitch.A, pitch.D, pitch.G, pitch.B, pitch.E}, target, w, pitch.C, 100, search.Filters{}),
		CacheKey(fretboard.Standard, target, w, pitch.C, 10, search.Filters{}),
		CacheKey(fretboard.Standard, target, w, pitch.C, 100, search.Filters{MinSounding: 3}),
		CacheKey(fretboard.Standard, target, w, pitch.C, 100, search.Filters{RequireRoot: true}),
		CacheKey(fretboard.Standard, target, w, pitch.C, 100, search.Filters{MaxSpan: 5}),
	}
	for i, k := range others {
		if k == base {
			t.Errorf("key %d collides with base", i)
		}
	}
	if base != CacheKey(fretboard.Standard, target, w, pitch.C, 100, search.Filters{}) {
		t.Error("CacheKey is not stable")
	}
}
