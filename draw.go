package main

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/sirupsen/logrus"
)

var gridLineColor = image.NewUniform(color.RGBA{128, 128, 255, 255})

type rasterStats struct {
	drawn   int
	missing int
	outside int
}

// Rasterize draws the grid lines and every code in [CharsFrom, CharsTo]
// onto a transparent sheet. Codes are clamped to 0-255; the cell of code c
// is always Layout().Cell(c) regardless of the range.
func Rasterize(cfg RenderConfig, glyphs Glyphs, cp Codepage) (*image.RGBA, rasterStats) {
	var stats rasterStats

	layout := cfg.Layout()
	img := image.NewRGBA(image.Rectangle{Max: layout.Size()})

	for _, l := range layout.Lines() {
		draw.Draw(img, l, gridLineColor, image.Point{}, draw.Src)
	}

	from, to := cfg.CharsFrom, cfg.CharsTo
	if from < 0 {
		from = 0
	}
	if to > 255 {
		to = 255
	}

	for code := from; code <= to; code++ {
		cell := layout.Cell(code)
		if !cell.Overlaps(img.Rect) {
			stats.outside++
			continue
		}
		if glyphs.DrawGlyph(img, cell, cp(code)) {
			stats.drawn++
		} else {
			stats.missing++
		}
	}

	if stats.outside > 0 {
		logrus.Debugf("%d codes fall below the last grid row and were skipped", stats.outside)
	}
	return img, stats
}
