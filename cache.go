package main

import (
	"fmt"
	"time"

	"github.com/coyove/bbolt"
	"golang.org/x/crypto/blake2b"
)

const cacheVersion = "fontsheet/1"

var sheetBucket = []byte("sheets")

// renderCache keeps encoded sheets keyed by font bytes and render settings.
type renderCache struct {
	db *bbolt.DB
}

func openRenderCache(path string) (*renderCache, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{
		Timeout:      time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, err
	}
	return &renderCache{db: db}, nil
}

func (c *renderCache) Close() error {
	return c.db.Close()
}

func sheetKey(fontData []byte, cfg RenderConfig, codepage string, smooth bool) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(cacheVersion))
	h.Write([]byte{0})
	h.Write(fontData)
	fmt.Fprintf(h, "\x00%d|%d-%d|%dx%d|%dx%d|%d|%s|%t",
		cfg.CharHeight, cfg.CharsFrom, cfg.CharsTo,
		cfg.GridCols, cfg.GridRows, cfg.CellWidth, cfg.CellHeight,
		cfg.LineWidth(), codepage, smooth)
	return h.Sum(nil)
}

// Get returns a copy of the sheet stored under key, or nil.
func (c *renderCache) Get(key []byte) (res []byte, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(sheetBucket)
		if bk == nil {
			return nil
		}
		if v := bk.Get(key); v != nil {
			res = append([]byte{}, v...)
		}
		return nil
	})
	return
}

func (c *renderCache) Put(key, sheet []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists(sheetBucket)
		if err != nil {
			return err
		}
		return bk.Put(key, sheet)
	})
}
