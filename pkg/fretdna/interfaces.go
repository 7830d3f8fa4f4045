package fretdna

import (
	"context"
	"io"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

type Service interface {
	Find(ctx context.Context, req Request) (*Answer, error)
	FindAll(ctx context.Context, r io.Reader, p Params) ([]Answer, error)
	Fretboard() *fretboard.Fretboard
	Retune(text string) error
	SaveChord(name, notes, root string) (*Chord, error)
	GetChord(idOrName string) (*Chord, error)
	ListChords() ([]Chord, error)
	DeleteChord(id string) error
	ClearCache() (int64, error)
	Audition(ctx context.Context, sol search.Solution, w io.WriteSeeker) error
	Detect(ctx context.Context, wavPath string) (chord.Target, error)
	Close() error
}

type Storage interface {
	SaveChord(name, notes, root string) (string, error)
	GetChord(id string) (*Chord, error)
	GetChordByName(name string) (*Chord, error)
	ListChords() ([]Chord, error)
	DeleteChord(id string) error
	GetShape(key string) (search.Result, bool, error)
	PutShape(key string, res search.Result) error
	ClearShapes() (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
