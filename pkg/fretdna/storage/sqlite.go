package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "fretdna.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when a chord id or name has no row.
var ErrNotFound = errors.New("chord not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Chord is a named note set kept in the user's library.
type Chord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string `gorm:"uniqueIndex:idx_chord_name" json:"name"`
	Notes     string `json:"notes"`
	Root      string `json:"root"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CachedShape stores one msgpack-encoded search result under its query key.
type CachedShape struct {
	Hash      string `gorm:"primaryKey;type:varchar(64)"`
	Payload   []byte
	Hits      int
	CreatedAt time.Time
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("FRETDNA_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Chord{}, &CachedShape{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveChord stores a chord under name, replacing the notes and root of an
// existing entry with the same name. It returns the entry's id.
func (c *DBClient) SaveChord(name, notes, root string) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("chord name is required")
	}

	var chord Chord
	err := c.DB.Where("name = ?", name).First(&chord).Error
	if err == nil {
		if err := c.DB.Model(&chord).Updates(map[string]any{"notes": notes, "root": root}).Error; err != nil {
			return "", fmt.Errorf("updating chord %q: %w", name, err)
		}
		return chord.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing chord: %w", err)
	}

	chord = Chord{ID: uuid.New().String(), Name: name, Notes: notes, Root: root}
	if err := c.DB.Create(&chord).Error; err != nil {
		return "", fmt.Errorf("creating chord: %w", err)
	}
	return chord.ID, nil
}

func (c *DBClient) GetChord(id string) (*Chord, error) {
	return c.findChord("id = ?", id)
}

func (c *DBClient) GetChordByName(name string) (*Chord, error) {
	return c.findChord("name = ?", strings.TrimSpace(name))
}

func (c *DBClient) findChord(query string, arg string) (*Chord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var chord Chord
	err := c.DB.Where(query, arg).First(&chord).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("querying chord: %w", err)
	}
	return &chord, nil
}

// ListChords returns the library ordered by name.
func (c *DBClient) ListChords() ([]Chord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var chords []Chord
	if err := c.DB.Order("name").Find(&chords).Error; err != nil {
		return nil, fmt.Errorf("listing chords: %w", err)
	}
	return chords, nil
}

func (c *DBClient) DeleteChord(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Where("id = ?", id).Delete(&Chord{})
	if res.Error != nil {
		return fmt.Errorf("deleting chord: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
