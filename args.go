package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/coyove/fontsheet/sadfont"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var fontExts = []string{".ttf", ".otf", ".ttc"}

const (
	defaultCharHeight = "16"
	defaultChars      = "0-255"
	defaultGrid       = "16x16"
	defaultGridCell   = "8x16"

	// maxDimension bounds charHeight and every grid and cell side.
	maxDimension = 4096
	// maxSheetPixels bounds the whole sheet (256MB of RGBA).
	maxSheetPixels = 64 << 20
)

// RenderConfig is everything that drives one sheet. It is built once by the
// resolver and passed around by value.
type RenderConfig struct {
	FontPath   string
	CharHeight int
	CharsFrom  int
	CharsTo    int
	GridCols   int
	GridRows   int
	CellWidth  int
	CellHeight int
	GridLines  bool
	Preview    bool
}

func (c RenderConfig) LineWidth() int {
	if c.GridLines {
		return 1
	}
	return 0
}

func (c RenderConfig) Layout() sadfont.Layout {
	return sadfont.Layout{
		Cols:       c.GridCols,
		Rows:       c.GridRows,
		CellWidth:  c.CellWidth,
		CellHeight: c.CellHeight,
		LineWidth:  c.LineWidth(),
	}
}

// BaseName is the font file name without its extension; outputs are named after it.
func (c RenderConfig) BaseName() string {
	base := filepath.Base(c.FontPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// UsageError is a bad flag value, prompt answer or missing input file.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

func isUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

type resolver struct {
	flags *pflag.FlagSet
	in    *bufio.Reader
	out   io.Writer
	dirs  []string
}

func newResolver(flags *pflag.FlagSet, in io.Reader, out io.Writer, dirs []string) *resolver {
	return &resolver{
		flags: flags,
		in:    bufio.NewReader(in),
		out:   out,
		dirs:  dirs,
	}
}

func (r *resolver) Resolve() (cfg RenderConfig, err error) {
	if cfg.FontPath, err = r.fontPath(); err != nil {
		return
	}

	v, err := r.resolveOrPrompt("charHeight", "Character height in pixels", defaultCharHeight)
	if err != nil {
		return
	}
	if cfg.CharHeight, err = parsePositive("charHeight", v); err != nil {
		return
	}

	if v, err = r.resolveOrPrompt("chars", "Characters to render (from-to)", defaultChars); err != nil {
		return
	}
	if cfg.CharsFrom, cfg.CharsTo, err = parseRange(v); err != nil {
		return
	}

	if v, err = r.resolveOrPrompt("grid", "Grid size in characters (WxH)", defaultGrid); err != nil {
		return
	}
	if cfg.GridCols, cfg.GridRows, err = parsePair("grid", v); err != nil {
		return
	}

	if v, err = r.resolveOrPrompt("gridcell", "Cell size in pixels (WxH)", defaultGridCell); err != nil {
		return
	}
	if cfg.CellWidth, cfg.CellHeight, err = parsePair("gridcell", v); err != nil {
		return
	}

	if cfg.GridLines, err = r.resolveBool("gridlines", "Draw grid lines?"); err != nil {
		return
	}
	if err = checkSheetSize(cfg.Layout()); err != nil {
		return
	}
	if cfg.Preview, err = r.resolveBool("preview", "Open preview when done?"); err != nil {
		return
	}

	logrus.Debugf("resolved config: %+v", cfg)
	return cfg, nil
}

// resolveOrPrompt returns the flag's value when it was given on the command
// line, otherwise asks the operator once. A blank answer yields def.
func (r *resolver) resolveOrPrompt(name, question, def string) (string, error) {
	if r.flags.Changed(name) {
		return r.flags.GetString(name)
	}
	answer, err := r.ask(fmt.Sprintf("%s [%s]: ", question, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (r *resolver) resolveBool(name, question string) (bool, error) {
	if r.flags.Changed(name) {
		return r.flags.GetBool(name)
	}
	answer, err := r.ask(question + " [Y/n]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "", "1", "yes", "y":
		return true, nil
	case "0", "no", "n":
		return false, nil
	}
	return false, usageErrorf("invalid answer for %s: %q (expected yes or no)", name, answer)
}

func (r *resolver) ask(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err == io.EOF {
		fmt.Fprintln(r.out)
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (r *resolver) fontPath() (string, error) {
	if r.flags.Changed("font") {
		p, err := r.flags.GetString("font")
		if err != nil {
			return "", err
		}
		if err := checkReadable(p); err != nil {
			return "", usageErrorf("font file not found: %s", p)
		}
		return p, nil
	}

	fonts, dir := findFonts(r.dirs)
	switch len(fonts) {
	case 0:
		return "", usageErrorf("no font files (%s) found in %s",
			strings.Join(fontExts, ", "), strings.Join(r.dirs, ", "))
	case 1:
		fmt.Fprintf(r.out, "Using font: %s\n", fonts[0])
		return filepath.Join(dir, fonts[0]), nil
	}

	fmt.Fprintf(r.out, "Fonts found in %s:\n", dir)
	for i, f := range fonts {
		fmt.Fprintf(r.out, "  %d: %s\n", i+1, f)
	}
	answer, err := r.ask(fmt.Sprintf("Choose a font [1-%d, default 1]: ", len(fonts)))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return filepath.Join(dir, fonts[0]), nil
	}
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 1 || idx > len(fonts) {
		return "", usageErrorf("invalid font choice: %q", answer)
	}
	return filepath.Join(dir, fonts[idx-1]), nil
}

func checkReadable(p string) error {
	if p == "" {
		return os.ErrNotExist
	}
	st, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", p)
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	return f.Close()
}

// findFonts returns the font file names of the first directory in dirs that
// has any, sorted by name.
func findFonts(dirs []string) (names []string, dir string) {
	seen := map[string]bool{}
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			if seen[abs] {
				continue
			}
			seen[abs] = true
		}
		entries, err := os.ReadDir(d)
		if err != nil {
			logrus.Debugf("scan %s: %v", d, err)
			continue
		}
		for _, e := range entries {
			if e.Type().IsRegular() && isFontFile(e.Name()) {
				names = append(names, e.Name())
			}
		}
		if len(names) > 0 {
			sort.Strings(names)
			return names, d
		}
	}
	return nil, ""
}

func isFontFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range fontExts {
		if ext == e {
			return true
		}
	}
	return false
}

func parsePositive(name, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, usageErrorf("%s must be an integer: %s", name, v)
	}
	if n <= 0 {
		return 0, usageErrorf("%s must be positive: %s", name, v)
	}
	if n > maxDimension {
		return 0, usageErrorf("%s must be at most %d: %s", name, maxDimension, v)
	}
	return n, nil
}

// checkSheetSize rejects layouts whose sheet would not fit in memory. Sides
// are already bounded by maxDimension, so int64 cannot overflow here.
func checkSheetSize(l sadfont.Layout) error {
	cols, rows := int64(l.Cols), int64(l.Rows)
	lw := int64(l.LineWidth)
	w := cols*int64(l.CellWidth) + (cols+1)*lw
	h := rows*int64(l.CellHeight) + (rows+1)*lw
	if w*h > maxSheetPixels {
		return usageErrorf("sheet would be %dx%d pixels, more than %d in total", w, h, maxSheetPixels)
	}
	return nil
}

func parseRange(v string) (from, to int, err error) {
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return 0, 0, usageErrorf("chars format must be from-to: %s", v)
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	to, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, usageErrorf("chars must be two integers: %s", v)
	}
	if from < 0 || to > 255 {
		return 0, 0, usageErrorf("chars must lie within 0-255: %s", v)
	}
	if from > to {
		return 0, 0, usageErrorf("chars range is reversed (%d > %d): %s", from, to, v)
	}
	return from, to, nil
}

func parsePair(name, v string) (w, h int, err error) {
	parts := strings.Split(strings.ToLower(v), "x")
	if len(parts) != 2 {
		return 0, 0, usageErrorf("%s format must be WxH: %s", name, v)
	}
	if w, err = parsePositive(name+" width", parts[0]); err != nil {
		return 0, 0, err
	}
	if h, err = parsePositive(name+" height", parts[1]); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
