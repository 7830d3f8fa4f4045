package fretdna

import (
	"runtime"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/audio"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

type Config struct {
	// DBPath opens a sqlite chord library; empty runs without one.
	DBPath     string
	SampleRate int
	Workers    int
	// Cache stores search results in the library database.
	Cache   bool
	Tuning  fretboard.Tuning
	Window  search.Window
	Filters search.Filters
	Logger  Logger
	Storage Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithCache(enabled bool) Option {
	return func(c *Config) {
		c.Cache = enabled
	}
}

func WithTuning(t fretboard.Tuning) Option {
	return func(c *Config) {
		c.Tuning = t
	}
}

func WithWindow(w search.Window) Option {
	return func(c *Config) {
		c.Window = w
	}
}

// WithFilters sets the playability filters used when a request carries
// none.
func WithFilters(f search.Filters) Option {
	return func(c *Config) {
		c.Filters = f
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		SampleRate: audio.DefaultSampleRate,
		Workers:    runtime.GOMAXPROCS(0),
		Tuning:     fretboard.Standard,
		Window:     search.DefaultWindow,
	}
}
