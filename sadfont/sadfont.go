// Package sadfont reads and writes the .font sidecar that SadConsole loads
// next to a glyph sheet, and describes the sheet's grid geometry.
package sadfont

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"
)

const (
	// TypeTag is the value SadConsole expects in the "$type" key.
	TypeTag = "SadConsole.SadFont, SadConsole"

	// SolidGlyphIndex is the CP437 full block.
	SolidGlyphIndex = 219
)

// Record is the .font file. Field order is the key order on disk.
type Record struct {
	Type            string `json:"$type"`
	Name            string `json:"Name"`
	FilePath        string `json:"FilePath"`
	GlyphWidth      int    `json:"GlyphWidth"`
	GlyphHeight     int    `json:"GlyphHeight"`
	GlyphPadding    int    `json:"GlyphPadding"`
	Columns         int    `json:"Columns"`
	SolidGlyphIndex int    `json:"SolidGlyphIndex"`
	IsSadExtended   bool   `json:"IsSadExtended"`
}

// NewRecord describes a sheet laid out as l, stored in pngName.
// GlyphPadding carries the grid line width.
func NewRecord(name, pngName string, l Layout) Record {
	return Record{
		Type:            TypeTag,
		Name:            name,
		FilePath:        pngName,
		GlyphWidth:      l.CellWidth,
		GlyphHeight:     l.CellHeight,
		GlyphPadding:    l.LineWidth,
		Columns:         l.Cols,
		SolidGlyphIndex: SolidGlyphIndex,
	}
}

func (r Record) Marshal() ([]byte, error) {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

func (r *Record) Unmarshal(p []byte) error {
	var tmp Record
	if err := json.Unmarshal(p, &tmp); err != nil {
		return err
	}
	if tmp.Type != TypeTag {
		return fmt.Errorf("unexpected $type %q", tmp.Type)
	}
	if tmp.FilePath == "" || tmp.FilePath == "." || tmp.FilePath == ".." ||
		strings.ContainsAny(tmp.FilePath, `/\:`) {
		return fmt.Errorf("FilePath %q is not a plain file name", tmp.FilePath)
	}
	if tmp.GlyphWidth <= 0 || tmp.GlyphHeight <= 0 {
		return fmt.Errorf("invalid glyph size %dx%d", tmp.GlyphWidth, tmp.GlyphHeight)
	}
	if tmp.Columns <= 0 {
		return fmt.Errorf("invalid column count %d", tmp.Columns)
	}
	if tmp.GlyphPadding != 0 && tmp.GlyphPadding != 1 {
		return fmt.Errorf("unsupported glyph padding %d", tmp.GlyphPadding)
	}
	*r = tmp
	return nil
}

// ReadFile parses the .font file at path.
func ReadFile(path string) (Record, error) {
	var r Record
	buf, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := r.Unmarshal(buf); err != nil {
		return r, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Layout recovers the grid from the record and the size of its sheet image.
func (r Record) Layout(sheet image.Point) (Layout, error) {
	l := Layout{
		Cols:       r.Columns,
		CellWidth:  r.GlyphWidth,
		CellHeight: r.GlyphHeight,
		LineWidth:  r.GlyphPadding,
	}
	if w := l.Cols*l.CellWidth + (l.Cols+1)*l.LineWidth; w != sheet.X {
		return l, fmt.Errorf("sheet is %dpx wide, record implies %dpx", sheet.X, w)
	}
	step := l.CellHeight + l.LineWidth
	if sheet.Y < l.LineWidth || (sheet.Y-l.LineWidth)%step != 0 {
		return l, fmt.Errorf("sheet height %dpx is not a whole number of %dpx rows", sheet.Y, step)
	}
	l.Rows = (sheet.Y - l.LineWidth) / step
	return l, nil
}
