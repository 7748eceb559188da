package main

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/coyove/sdss/contrib/plru"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// Glyphs draws single characters into grid cells.
type Glyphs interface {
	// DrawGlyph draws r in white, centred in cell and clipped to it. It
	// reports false when the font has no glyph for r.
	DrawGlyph(dst draw.Image, cell image.Rectangle, r rune) bool
	Close() error
}

type faceOptions struct {
	Height int
	Smooth bool
}

type loadFunc func(path string, opts faceOptions) (Glyphs, error)

// Codepage maps a sheet code (0-255) to the rune drawn in its cell.
type Codepage func(code int) rune

func latin1(code int) rune { return rune(code) }

// cp437Graphics are the glyphs the IBM PC showed for the control codes,
// which charmap decodes as plain controls.
var cp437Graphics = [32]rune{
	0, '☺', '☻', '♥', '♦', '♣', '♠', '•', '◘', '○', '◙', '♂', '♀', '♪', '♫', '☼',
	'►', '◄', '↕', '‼', '¶', '§', '▬', '↨', '↑', '↓', '→', '←', '∟', '↔', '▲', '▼',
}

func cp437(code int) rune {
	switch {
	case code > 0 && code < 32:
		return cp437Graphics[code]
	case code == 127:
		return '⌂'
	}
	return charmap.CodePage437.DecodeByte(byte(code))
}

func parseCodepage(name string) (Codepage, error) {
	switch strings.ToLower(name) {
	case "", "latin1", "iso-8859-1":
		return latin1, nil
	case "cp437", "437":
		return cp437, nil
	}
	return nil, usageErrorf("unsupported codepage: %s (expected latin1 or cp437)", name)
}

type glyphMask struct {
	mask    *image.Alpha
	offset  image.Point
	advance int
	ok      bool
}

type fontFace struct {
	face    font.Face
	index   func(r rune) uint64
	smooth  bool
	ascent  int
	descent int
	getMask func(idx uint64) (*glyphMask, bool)
	addMask func(idx uint64, g *glyphMask)
}

// LoadFace opens a TrueType or OpenType font at the given pixel height.
func LoadFace(path string, opts faceOptions) (Glyphs, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f *fontFace
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ttf":
		f, err = newTrueTypeFace(buf, opts)
		if err != nil {
			logrus.Debugf("truetype: %v, retrying as opentype", err)
			f, err = newOpenTypeFace(buf, opts, false)
		}
	case ".otf":
		f, err = newOpenTypeFace(buf, opts, false)
	case ".ttc", ".otc":
		f, err = newOpenTypeFace(buf, opts, true)
	default:
		return nil, fmt.Errorf("unsupported font format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	m := f.face.Metrics()
	f.ascent, f.descent = m.Ascent.Round(), m.Descent.Round()
	f.smooth = opts.Smooth
	masks := plru.New[uint64, *glyphMask](512, plru.Hash.Uint64, nil)
	f.getMask = func(idx uint64) (*glyphMask, bool) { return masks.Get(idx) }
	f.addMask = func(idx uint64, g *glyphMask) { masks.Add(idx, g) }
	return f, nil
}

func newTrueTypeFace(buf []byte, opts faceOptions) (*fontFace, error) {
	tf, err := truetype.Parse(buf)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(tf, &truetype.Options{
		Size:    float64(opts.Height),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &fontFace{
		face:  face,
		index: func(r rune) uint64 { return uint64(tf.Index(r)) },
	}, nil
}

func newOpenTypeFace(buf []byte, opts faceOptions, collection bool) (*fontFace, error) {
	var sf *sfnt.Font
	var err error
	if collection {
		var c *opentype.Collection
		if c, err = opentype.ParseCollection(buf); err != nil {
			return nil, err
		}
		if c.NumFonts() > 1 {
			logrus.Infof("collection has %d fonts, using the first", c.NumFonts())
		}
		sf, err = c.Font(0)
	} else {
		sf, err = opentype.Parse(buf)
	}
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(sf, &opentype.FaceOptions{
		Size:    float64(opts.Height),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}

	var sb sfnt.Buffer
	return &fontFace{
		face: face,
		index: func(r rune) uint64 {
			idx, err := sf.GlyphIndex(&sb, r)
			if err != nil {
				return 0
			}
			return uint64(idx)
		},
	}, nil
}

func (f *fontFace) Close() error {
	return f.face.Close()
}

func (f *fontFace) glyph(r rune) *glyphMask {
	idx := f.index(r)
	if idx == 0 {
		// .notdef
		return &glyphMask{}
	}
	if g, ok := f.getMask(idx); ok {
		return g
	}

	g := &glyphMask{}
	dr, mask, maskp, advance, ok := f.face.Glyph(fixed.Point26_6{}, r)
	if ok {
		// The face reuses its mask buffer between calls.
		g.mask = image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
		draw.Draw(g.mask, g.mask.Bounds(), mask, maskp, draw.Src)
		if !f.smooth {
			for i, a := range g.mask.Pix {
				if a >= 0x80 {
					g.mask.Pix[i] = 0xff
				} else {
					g.mask.Pix[i] = 0
				}
			}
		}
		g.offset = dr.Min
		g.advance = advance.Round()
		g.ok = true
	}
	f.addMask(idx, g)
	return g
}

func (f *fontFace) DrawGlyph(dst draw.Image, cell image.Rectangle, r rune) bool {
	g := f.glyph(r)
	if !g.ok {
		return false
	}

	// >>1 floors, so glyphs wider or taller than the cell shift up and left.
	x := cell.Min.X + (cell.Dx()-g.advance)>>1
	baseline := cell.Min.Y + (cell.Dy()-(f.ascent+f.descent))>>1 + f.ascent

	dr := g.mask.Bounds().Add(g.offset).Add(image.Pt(x, baseline))
	clip := dr.Intersect(cell).Intersect(dst.Bounds())
	if clip.Empty() {
		return true
	}
	draw.DrawMask(dst, clip, image.White, image.Point{}, g.mask, clip.Min.Sub(dr.Min), draw.Over)
	return true
}
