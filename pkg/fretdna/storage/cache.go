package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

// CacheKey identifies a search by everything that affects its result.
func CacheKey(t fretboard.Tuning, target chord.Target, w search.Window, root pitch.Class, limit int, f search.Filters) string {
	h := sha256.New()
	fmt.Fprintf(h, "t=%v;n=%v;w=%d/%d;r=%d;l=%d", t[:], []pitch.Class(target), w.First, w.Length, root, limit)
	if f != (search.Filters{}) {
		fmt.Fprintf(h, ";f=%d/%t/%d", f.MinSounding, f.RequireRoot, f.MaxSpan)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GetShape loads a cached result. ok is false on a miss.
func (c *DBClient) GetShape(key string) (res search.Result, ok bool, err error) {
	if c == nil || c.DB == nil {
		return res, false, errors.New(errDBClientNil)
	}
	var row CachedShape
	err = c.DB.Where("hash = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return res, false, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("querying shape cache: %w", err)
	}

	if err := msgpack.NewDecoder(bytes.NewReader(row.Payload)).Decode(&res); err != nil {
		return res, false, fmt.Errorf("decoding cached shape: %w", err)
	}
	if err := c.DB.Model(&row).UpdateColumn("hits", gorm.Expr("hits + 1")).Error; err != nil {
		return res, false, fmt.Errorf("counting cache hit: %w", err)
	}
	return res, true, nil
}

// PutShape stores res under key, replacing any previous entry.
func (c *DBClient) PutShape(key string, res search.Result) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(res); err != nil {
		return fmt.Errorf("encoding shape: %w", err)
	}
	row := CachedShape{Hash: key, Payload: buf.Bytes()}
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}
	if err := c.DB.Clauses(upsert).Create(&row).Error; err != nil {
		return fmt.Errorf("storing shape: %w", err)
	}
	return nil
}

// ClearShapes empties the cache and reports how many entries were removed.
func (c *DBClient) ClearShapes() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	res := c.DB.Where("1 = 1").Delete(&CachedShape{})
	if res.Error != nil {
		return 0, fmt.Errorf("clearing shape cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}
