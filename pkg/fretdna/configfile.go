package fretdna

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/logger"
)

const DefaultConfigFile = "fretdna.toml"

// ConfigError names the file and key a configuration problem came from.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FileConfig mirrors fretdna.toml.
//
//	[search]
//	first_fret = 1
//	frets = 4
//	root = "C"
//	min_strings = 3      # playability filters, 0/false turns each off
//	require_root = true
//	max_span = 5
//
//	[tuning]
//	notes = "D A D G B E"   # or file = "dadgad.txt"
//
//	[storage]
//	db_path = "fretdna.sqlite3"
//	cache = true
//
//	[audio]
//	sample_rate = 22050
//
//	[log]
//	level = "info"
type FileConfig struct {
	Search struct {
		FirstFret   int    `toml:"first_fret"`
		Frets       int    `toml:"frets"`
		Root        string `toml:"root"`
		MinStrings  int    `toml:"min_strings"`
		RequireRoot bool   `toml:"require_root"`
		MaxSpan     int    `toml:"max_span"`
	} `toml:"search"`
	Tuning struct {
		Notes string `toml:"notes"`
		File  string `toml:"file"`
	} `toml:"tuning"`
	Storage struct {
		DBPath string `toml:"db_path"`
		Cache  bool   `toml:"cache"`
	} `toml:"storage"`
	Audio struct {
		SampleRate int `toml:"sample_rate"`
	} `toml:"audio"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`

	path string
	meta toml.MetaData
}

// FindConfigFile returns $FRETDNA_CONFIG, or fretdna.toml when it exists in
// the working directory, or "".
func FindConfigFile() string {
	if p := os.Getenv("FRETDNA_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// LoadConfigFile decodes and validates a config file. Unknown keys are
// rejected.
func LoadConfigFile(path string) (*FileConfig, error) {
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	cfg.path = path
	cfg.meta = meta

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsSet reports whether key was present in the file, e.g. IsSet("search", "root").
func (f *FileConfig) IsSet(key ...string) bool {
	return f != nil && f.meta.IsDefined(key...)
}

func (f *FileConfig) validate() error {
	if f.IsSet("search", "first_fret") || f.IsSet("search", "frets") {
		if err := f.Window(search.DefaultWindow).Validate(); err != nil {
			return &ConfigError{Path: f.path, Key: "search", Err: err}
		}
	}
	if f.Search.Root != "" {
		if _, err := pitch.Parse(f.Search.Root); err != nil {
			return &ConfigError{Path: f.path, Key: "search.root", Err: err}
		}
	}
	if err := f.Filters().Validate(); err != nil {
		return &ConfigError{Path: f.path, Key: "search", Err: err}
	}
	if f.Tuning.Notes != "" && f.Tuning.File != "" {
		return &ConfigError{Path: f.path, Key: "tuning", Err: errors.New("set either notes or file, not both")}
	}
	if f.IsSet("audio", "sample_rate") && f.Audio.SampleRate <= 0 {
		return &ConfigError{Path: f.path, Key: "audio.sample_rate", Err: fmt.Errorf("must be > 0, got %d", f.Audio.SampleRate)}
	}
	if f.Log.Level != "" {
		if _, err := logger.ParseLevel(f.Log.Level); err != nil {
			return &ConfigError{Path: f.path, Key: "log.level", Err: err}
		}
	}
	return nil
}

// Window overlays the file's search keys on def.
func (f *FileConfig) Window(def search.Window) search.Window {
	w := def
	if f.IsSet("search", "first_fret") {
		w.First = f.Search.FirstFret
	}
	if f.IsSet("search", "frets") {
		w.Length = f.Search.Frets
	}
	return w
}

// Filters returns the playability filters from the search section.
func (f *FileConfig) Filters() search.Filters {
	return search.Filters{
		MinSounding: f.Search.MinStrings,
		RequireRoot: f.Search.RequireRoot,
		MaxSpan:     f.Search.MaxSpan,
	}
}

// TuningConfig returns the configured tuning, reading a tuning file relative
// to the config file's directory. ok is false when no tuning is configured.
func (f *FileConfig) TuningConfig() (t fretboard.Tuning, ok bool, err error) {
	switch {
	case f.Tuning.Notes != "":
		t, err = fretboard.ParseTuning(f.Tuning.Notes)
		if err != nil {
			return t, false, &ConfigError{Path: f.path, Key: "tuning.notes", Err: err}
		}
		return t, true, nil
	case f.Tuning.File != "":
		p := f.Tuning.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(f.path), p)
		}
		t, err = ReadTuningFile(p)
		if err != nil {
			return t, false, &ConfigError{Path: f.path, Key: "tuning.file", Err: err}
		}
		return t, true, nil
	}
	return t, false, nil
}

// Options converts the file into service options.
func (f *FileConfig) Options() ([]Option, error) {
	opts := []Option{WithWindow(f.Window(search.DefaultWindow)), WithFilters(f.Filters())}
	t, ok, err := f.TuningConfig()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, WithTuning(t))
	}
	if f.Storage.DBPath != "" {
		p := f.Storage.DBPath
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(f.path), p)
		}
		opts = append(opts, WithDBPath(p))
	}
	if f.IsSet("storage", "cache") {
		opts = append(opts, WithCache(f.Storage.Cache))
	}
	if f.IsSet("audio", "sample_rate") {
		opts = append(opts, WithSampleRate(f.Audio.SampleRate))
	}
	return opts, nil
}

// ReadTuningFile reads exactly six notes from a text file.
func ReadTuningFile(path string) (fretboard.Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fretboard.Tuning{}, fmt.Errorf("can't open tuning file %q: %w", path, err)
	}
	t, err := fretboard.ParseTuning(string(data))
	if err != nil {
		return t, fmt.Errorf("tuning file %q: %w", path, err)
	}
	return t, nil
}
