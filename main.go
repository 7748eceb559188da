package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dirs   func() []string
	load   loadFunc
	launch launchFunc
}

func main() {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		dirs:   searchDirs,
		load:   LoadFace,
		launch: openFile,
	}
	os.Exit(a.run(os.Args[1:]))
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("fontsheet", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.String("font", "", "Path to TTF/OTF font file")
	fs.String("charHeight", defaultCharHeight, "Font size in pixels")
	fs.String("chars", defaultChars, "Range of character codes to render, from-to")
	fs.String("grid", defaultGrid, "Grid dimensions in characters, WxH")
	fs.String("gridcell", defaultGridCell, "Cell size in pixels, WxH")
	fs.Bool("gridlines", false, "Draw 1px grid lines between characters")
	fs.Bool("preview", false, "Open the sheet in the default image viewer")

	fs.StringVar(&opts.Codepage, "codepage", "latin1", "Character set of codes 0-255: latin1 or cp437")
	fs.BoolVar(&opts.Smooth, "smooth", false, "Keep anti-aliased glyph edges")
	fs.BoolVar(&opts.WebP, "webp", false, "Also write a lossless .webp copy")
	fs.IntVar(&opts.PreviewScale, "preview-scale", 1, "Enlarge the previewed image this many times")
	fs.StringVar(&opts.CachePath, "cache", "", "Render cache database file")
	fs.StringVar(&opts.LogPath, "log", "", "Append logs to this file (rotated)")
	fs.StringVar(&opts.OutDir, "out", ".", "Output directory")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Log debug output to stderr")
	return fs
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "fontsheet - Generate a SadConsole font sprite sheet with grid")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  fontsheet --font <path_to_ttf> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  fontsheet --font IBM_VGA.ttf")
	fmt.Fprintln(w, "  fontsheet --font font.ttf --charHeight 16 --gridlines")
	fmt.Fprintln(w, "  fontsheet --font font.ttf --grid 32x8 --gridcell 8x14 --gridlines --preview")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Missing options are asked for interactively.")
	fmt.Fprintln(w, "The PNG and .font file are saved in the current directory.")
	fmt.Fprintln(w)
}

func (a *app) run(args []string) int {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(a.stdout, fs)
			return 0
		}
		fmt.Fprintf(a.stdout, "Error: %v\n", err)
		return 1
	}

	defer a.setupLogging(opts)()

	if err := a.generate(args, fs, opts); err != nil {
		logrus.Errorf("%v", err)
		fmt.Fprintf(a.stdout, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) generate(args []string, fs *pflag.FlagSet, opts options) error {
	if fs.NArg() > 0 {
		return usageErrorf("unexpected argument: %s", fs.Arg(0))
	}
	if opts.PreviewScale < 1 || opts.PreviewScale > 32 {
		return usageErrorf("preview-scale must be within 1-32: %d", opts.PreviewScale)
	}
	cp, err := parseCodepage(opts.Codepage)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		printUsage(a.stdout, fs)
	}

	cfg, err := newResolver(fs, a.stdin, a.stdout, a.dirs()).Resolve()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return err
	}

	g := &generator{
		cfg:    cfg,
		opts:   opts,
		cp:     cp,
		load:   a.load,
		launch: a.launch,
		stdout: a.stdout,
	}
	res, err := g.Generate()
	if err != nil {
		return err
	}

	logrus.Infof("wrote %s and %s (cached=%v)", res.PNGPath, res.FontPath, res.Cached)
	fmt.Fprintf(a.stdout, "Saved: %s (%dx%dpx)\n", filepath.Base(res.PNGPath), res.Size.X, res.Size.Y)
	return nil
}

// searchDirs is where fonts are looked for when --font is absent.
func searchDirs() []string {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		if p, err := filepath.EvalSymlinks(exe); err == nil {
			exe = p
		}
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

func (a *app) setupLogging(opts options) (closer func()) {
	var outs []io.Writer
	level := logrus.InfoLevel
	if opts.Verbose {
		outs = append(outs, a.stderr)
		level = logrus.DebugLevel
	}

	closer = func() {}
	if opts.LogPath != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.LogPath,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		}
		outs = append(outs, lj)
		closer = func() { lj.Close() }
	}

	logrus.SetFormatter(&logFormatter{})
	logrus.SetReportCaller(true)
	logrus.SetLevel(level)
	switch len(outs) {
	case 0:
		logrus.SetOutput(io.Discard)
	case 1:
		logrus.SetOutput(outs[0])
	default:
		logrus.SetOutput(io.MultiWriter(outs...))
	}
	return closer
}

type logFormatter struct{}

func (f *logFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	buf := bytes.Buffer{}
	switch {
	case entry.Level <= logrus.ErrorLevel:
		buf.WriteString("ERR")
	case entry.Level == logrus.WarnLevel:
		buf.WriteString("WARN")
	case entry.Level == logrus.DebugLevel:
		buf.WriteString("DBG")
	default:
		buf.WriteString("INFO")
	}
	buf.WriteString("\t")
	buf.WriteString(entry.Time.UTC().Format("2006-01-02T15:04:05.000\t"))
	if entry.Caller == nil {
		buf.WriteString("internal")
	} else {
		buf.WriteString(filepath.Base(entry.Caller.File))
		buf.WriteString(":")
		buf.WriteString(strconv.Itoa(entry.Caller.Line))
	}
	buf.WriteString("\t")
	buf.WriteString(entry.Message)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
