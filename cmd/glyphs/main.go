// Command glyphs slices a generated sheet back into one PNG per cell, named
// after the cell's code (e.g. 065.png).
package main

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/coyove/fontsheet/sadfont"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	var p, outDir string
	var scale int
	var keepEmpty bool
	pflag.StringVarP(&p, "font", "f", "", "path to a .font file")
	pflag.StringVarP(&outDir, "out", "o", "glyphs", "output directory")
	pflag.IntVarP(&scale, "scale", "s", 1, "enlarge every glyph this many times (1-32)")
	pflag.BoolVar(&keepEmpty, "keep-empty", false, "also write fully transparent cells")
	pflag.Parse()

	if p == "" {
		pflag.Usage()
		os.Exit(2)
	}

	if _, err := run(p, outDir, scale, keepEmpty); err != nil {
		logrus.Fatal(err)
	}
}

// run writes one PNG per cell of the sheet described by the record at
// fontPath and returns how many it wrote.
func run(fontPath, outDir string, scale int, keepEmpty bool) (int, error) {
	if scale < 1 || scale > 32 {
		return 0, fmt.Errorf("scale must be within 1-32: %d", scale)
	}

	rec, err := sadfont.ReadFile(fontPath)
	if err != nil {
		return 0, err
	}

	sheet, err := loadPNG(filepath.Join(filepath.Dir(fontPath), rec.FilePath))
	if err != nil {
		return 0, err
	}

	layout, err := rec.Layout(sheet.Bounds().Size())
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	n := 0
	for code := 0; code < layout.Cols*layout.Rows; code++ {
		cell := layout.Cell(code).Add(sheet.Bounds().Min)
		img := image.NewRGBA(image.Rect(0, 0, cell.Dx(), cell.Dy()))
		draw.Draw(img, img.Bounds(), sheet, cell.Min, draw.Src)
		if !keepEmpty && transparent(img) {
			continue
		}

		var out image.Image = img
		if scale > 1 {
			out = resize.Resize(uint(cell.Dx()*scale), uint(cell.Dy()*scale), img, resize.NearestNeighbor)
		}
		if err := savePNG(filepath.Join(outDir, fmt.Sprintf("%03d.png", code)), out); err != nil {
			return n, err
		}
		n++
	}
	logrus.Infof("%s: wrote %d of %d cells to %s", rec.Name, n, layout.Cols*layout.Rows, outDir)
	return n, nil
}

func transparent(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			return false
		}
	}
	return true
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
