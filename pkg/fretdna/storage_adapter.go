package fretdna

import (
	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/storage"
)

// storageAdapter adapts storage.DBClient to the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage opens (creating if needed) a sqlite chord library.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SaveChord(name, notes, root string) (string, error) {
	return s.db.SaveChord(name, notes, root)
}

func (s *storageAdapter) GetChord(id string) (*Chord, error) {
	row, err := s.db.GetChord(id)
	if err != nil {
		return nil, err
	}
	c := fromRow(*row)
	return &c, nil
}

func (s *storageAdapter) GetChordByName(name string) (*Chord, error) {
	row, err := s.db.GetChordByName(name)
	if err != nil {
		return nil, err
	}
	c := fromRow(*row)
	return &c, nil
}

func (s *storageAdapter) ListChords() ([]Chord, error) {
	rows, err := s.db.ListChords()
	if err != nil {
		return nil, err
	}
	chords := make([]Chord, len(rows))
	for i, row := range rows {
		chords[i] = fromRow(row)
	}
	return chords, nil
}

func (s *storageAdapter) DeleteChord(id string) error {
	return s.db.DeleteChord(id)
}

func (s *storageAdapter) GetShape(key string) (search.Result, bool, error) {
	return s.db.GetShape(key)
}

func (s *storageAdapter) PutShape(key string, res search.Result) error {
	return s.db.PutShape(key, res)
}

func (s *storageAdapter) ClearShapes() (int64, error) {
	return s.db.ClearShapes()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func fromRow(row storage.Chord) Chord {
	return Chord{
		ID:        row.ID,
		Name:      row.Name,
		Notes:     chord.Parse(row.Notes),
		Root:      row.Root,
		CreatedAt: row.CreatedAt,
	}
}
