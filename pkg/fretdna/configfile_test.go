package fretdna

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
[search]
first_fret = 0
frets = 5
root = "G"
min_strings = 3
require_root = true
max_span = 5

[tuning]
notes = "D A D G B E"

[storage]
db_path = "lib.sqlite3"
cache = true

[audio]
sample_rate = 16000

[log]
level = "debug"
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if w := cfg.Window(search.DefaultWindow); w != (search.Window{First: 0, Length: 5}) {
		t.Errorf("Window = %+v", w)
	}
	if !cfg.IsSet("search", "root") || cfg.Search.Root != "G" {
		t.Errorf("root not decoded: %+v", cfg.Search)
	}

	tuning, ok, err := cfg.TuningConfig()
	if err != nil || !ok || tuning[0] != pitch.D {
		t.Errorf("TuningConfig = %v, %v, %v", tuning, ok, err)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	c := defaultConfig()
	for _, o := range opts {
		o(c)
	}
	if c.DBPath != filepath.Join(filepath.Dir(path), "lib.sqlite3") {
		t.Errorf("db path = %q", c.DBPath)
	}
	if !c.Cache || c.SampleRate != 16000 || c.Tuning[0] != pitch.D || c.Window.Length != 5 {
		t.Errorf("options not applied: %+v", c)
	}
	if want := (search.Filters{MinSounding: 3, RequireRoot: true, MaxSpan: 5}); c.Filters != want {
		t.Errorf("filters = %+v, expected %+v", c.Filters, want)
	}
}

func TestLoadConfigFilePartialWindow(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, "[search]\nfrets = 6\n"))
	if err != nil {
		t.Fatal(err)
	}
	if w := cfg.Window(search.DefaultWindow); w != (search.Window{First: 1, Length: 6}) {
		t.Errorf("Window = %+v", w)
	}
}

func TestLoadConfigFileTuningFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "open-g.txt"), []byte("D G D\nG B D\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(path, []byte("[tuning]\nfile = \"open-g.txt\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := cfg.TuningConfig()
	want := fretboard.Tuning{pitch.D, pitch.G, pitch.D, pitch.G, pitch.B, pitch.D}
	if err != nil || !ok || got != want {
		t.Errorf("TuningConfig = %v, %v, %v", got, ok, err)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		key     string
		wantErr error
	}{
		{"unknown key", "[search]\ncolour = 1\n", "", nil},
		{"window", "[search]\nfirst_fret = 40\n", "search", search.ErrWindow},
		{"root", "[search]\nroot = \"H\"\n", "search.root", pitch.ErrNoteLetter},
		{"min strings", "[search]\nmin_strings = 7\n", "search", search.ErrFilter},
		{"max span", "[search]\nmax_span = -1\n", "search", search.ErrFilter},
		{"both tunings", "[tuning]\nnotes = \"E A D G B E\"\nfile = \"x\"\n", "tuning", nil},
		{"sample rate", "[audio]\nsample_rate = 0\n", "audio.sample_rate", nil},
		{"log level", "[log]\nlevel = \"loud\"\n", "log.level", nil},
		{"syntax", "[search\n", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body))
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cerr.Key != tt.key {
				t.Errorf("key = %q, expected %q", cerr.Key, tt.key)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTuningFileCount(t *testing.T) {
	path := writeConfig(t, "[tuning]\nnotes = \"E A D G B\"\n")
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := cfg.TuningConfig(); !errors.Is(err, fretboard.ErrTuningLength) {
		t.Errorf("expected ErrTuningLength, got %v", err)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("FRETDNA_CONFIG", "/etc/fretdna.toml")
	if got := FindConfigFile(); got != "/etc/fretdna.toml" {
		t.Errorf("FindConfigFile = %q", got)
	}
}
