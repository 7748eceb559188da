package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/coyove/fontsheet/sadfont"
	"github.com/sirupsen/logrus"
)

// options are the settings that are never prompted for.
type options struct {
	Codepage     string
	Smooth       bool
	WebP         bool
	PreviewScale int
	CachePath    string
	LogPath      string
	OutDir       string
	Verbose      bool
}

type generator struct {
	cfg    RenderConfig
	opts   options
	cp     Codepage
	load   loadFunc
	launch launchFunc
	stdout io.Writer

	cache    *renderCache
	cacheKey []byte
	cached   bool
	sheet    image.Image
	pngData  []byte
	pngPath  string
}

type generateResult struct {
	PNGPath  string
	FontPath string
	Size     image.Point
	Cached   bool
}

func (g *generator) Generate() (generateResult, error) {
	type step struct {
		name string
		fn   func() error
	}

	steps := []step{
		{"open cache", g.openCache},
		{"rasterize", g.rasterize},
		{"write png", g.writePNG},
		{"write webp", g.writeWebP},
		{"write metadata", g.writeMetadata},
	}
	defer g.closeCache()

	var res generateResult
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return res, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	g.preview()

	res.PNGPath = g.pngPath
	res.FontPath = g.outPath(".font")
	res.Size = g.sheet.Bounds().Size()
	res.Cached = g.cached
	return res, nil
}

func (g *generator) outPath(ext string) string {
	return filepath.Join(g.opts.OutDir, g.cfg.BaseName()+ext)
}

func (g *generator) openCache() error {
	if g.opts.CachePath == "" {
		return nil
	}

	fontData, err := os.ReadFile(g.cfg.FontPath)
	if err != nil {
		return err
	}
	g.cacheKey = sheetKey(fontData, g.cfg, g.opts.Codepage, g.opts.Smooth)

	c, err := openRenderCache(g.opts.CachePath)
	if err != nil {
		logrus.Warnf("render cache %s unavailable: %v", g.opts.CachePath, err)
		return nil
	}
	g.cache = c

	data, err := c.Get(g.cacheKey)
	if err != nil {
		logrus.Warnf("read render cache: %v", err)
		return nil
	}
	if data == nil {
		logrus.Debugf("render cache miss %x", g.cacheKey[:8])
		return nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil || img.Bounds().Size() != g.cfg.Layout().Size() {
		logrus.Warnf("ignoring bad render cache entry %x: %v", g.cacheKey[:8], err)
		return nil
	}
	logrus.Infof("render cache hit %x", g.cacheKey[:8])
	g.sheet, g.pngData, g.cached = img, data, true
	return nil
}

func (g *generator) closeCache() {
	if g.cache == nil {
		return
	}
	if err := g.cache.Close(); err != nil {
		logrus.Warnf("close render cache: %v", err)
	}
	g.cache = nil
}

func (g *generator) rasterize() error {
	if g.cached {
		return nil
	}

	glyphs, err := g.load(g.cfg.FontPath, faceOptions{
		Height: g.cfg.CharHeight,
		Smooth: g.opts.Smooth,
	})
	if err != nil {
		return err
	}
	defer glyphs.Close()

	img, stats := Rasterize(g.cfg, glyphs, g.cp)
	logrus.Infof("rasterized %s: %d glyphs drawn, %d without glyph, %d off sheet",
		g.cfg.BaseName(), stats.drawn, stats.missing, stats.outside)

	if g.pngData, err = encodePNG(img); err != nil {
		return err
	}
	g.sheet = img

	if g.cache != nil {
		if err := g.cache.Put(g.cacheKey, g.pngData); err != nil {
			logrus.Warnf("write render cache: %v", err)
		}
	}
	return nil
}

func (g *generator) writePNG() error {
	g.pngPath = g.outPath(".png")
	return writeFileAtomic(g.pngPath, g.pngData)
}

func (g *generator) writeWebP() error {
	if !g.opts.WebP {
		return nil
	}
	data, err := encodeWebP(g.sheet)
	if err != nil {
		return err
	}
	return writeFileAtomic(g.outPath(".webp"), data)
}

func (g *generator) writeMetadata() error {
	name := g.cfg.BaseName()
	rec := sadfont.NewRecord(name, filepath.Base(g.pngPath), g.cfg.Layout())
	data, err := rec.Marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(g.outPath(".font"), data)
}

// preview never fails the run.
func (g *generator) preview() {
	if !g.cfg.Preview {
		return
	}

	target := g.pngPath
	if g.opts.PreviewScale > 1 {
		data, err := encodePNG(scalePreview(g.sheet, g.opts.PreviewScale))
		if err == nil {
			p := g.outPath(".preview.png")
			if err = writeFileAtomic(p, data); err == nil {
				target = p
			}
		}
		if err != nil {
			logrus.Warnf("scaled preview: %v", err)
		}
	}

	if err := g.launch(target); err != nil {
		logrus.Warnf("launch viewer for %s: %v", target, err)
		fmt.Fprintf(g.stdout, "Warning: could not open preview: %v\n", err)
	}
}
