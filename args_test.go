package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in       string
		from, to int
		wantErr  string
	}{
		{"0-255", 0, 255, ""},
		{"32-126", 32, 126, ""},
		{" 65 - 90 ", 65, 90, ""},
		{"7-7", 7, 7, ""},
		{"200-10", 0, 0, "reversed"},
		{"32", 0, 0, "from-to"},
		{"1-2-3", 0, 0, "from-to"},
		{"-5-10", 0, 0, "from-to"},
		{"a-10", 0, 0, "two integers"},
		{"0-256", 0, 0, "0-255"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			from, to, err := parseRange(tt.in)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseRange(%q) error = %v, want %q", tt.in, err, tt.wantErr)
				}
				if !isUsageError(err) {
					t.Errorf("parseRange(%q) error is %T, want *UsageError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange(%q) error = %v", tt.in, err)
			}
			if from != tt.from || to != tt.to {
				t.Errorf("parseRange(%q) = %d, %d, want %d, %d", tt.in, from, to, tt.from, tt.to)
			}
		})
	}
}

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"16x16", 16, 16, false},
		{"32x8", 32, 8, false},
		{"8X14", 8, 14, false},
		{"16", 0, 0, true},
		{"16x", 0, 0, true},
		{"0x16", 0, 0, true},
		{"16x-1", 0, 0, true},
		{"1x2x3", 0, 0, true},
		{"ax8", 0, 0, true},
		{"4096x4096", 4096, 4096, false},
		{"4097x1", 0, 0, true},
		{"4611686018427387904x1", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := parsePair("grid", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePair(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("parsePair(%q) = %d, %d, want %d, %d", tt.in, w, h, tt.w, tt.h)
			}
		})
	}
}

func TestParsePositive(t *testing.T) {
	if n, err := parsePositive("charHeight", "12"); err != nil || n != 12 {
		t.Errorf("parsePositive(12) = %d, %v", n, err)
	}
	for _, in := range []string{"0", "-3", "1.5", "", "abc"} {
		if _, err := parsePositive("charHeight", in); err == nil {
			t.Errorf("parsePositive(%q) succeeded", in)
		}
	}
}

func writeFonts(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), testFont, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func resolveWith(t *testing.T, args []string, input string, dirs ...string) (RenderConfig, string, error) {
	t.Helper()
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	cfg, err := newResolver(fs, strings.NewReader(input), out, dirs).Resolve()
	return cfg, out.String(), err
}

func TestResolveAllFlags(t *testing.T) {
	dir := t.TempDir()
	writeFonts(t, dir, "mono.ttf")
	font := filepath.Join(dir, "mono.ttf")

	cfg, out, err := resolveWith(t, []string{
		"--font", font, "--charHeight", "14", "--chars", "32-126",
		"--grid", "32x8", "--gridcell", "8x14", "--gridlines", "--preview",
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	want := RenderConfig{
		FontPath: font, CharHeight: 14, CharsFrom: 32, CharsTo: 126,
		GridCols: 32, GridRows: 8, CellWidth: 8, CellHeight: 14,
		GridLines: true, Preview: true,
	}
	if cfg != want {
		t.Errorf("Resolve() = %+v, want %+v", cfg, want)
	}
	if out != "" {
		t.Errorf("unexpected prompts: %q", out)
	}
	if cfg.BaseName() != "mono" || cfg.LineWidth() != 1 {
		t.Errorf("BaseName() = %q, LineWidth() = %d", cfg.BaseName(), cfg.LineWidth())
	}
}

func TestResolvePromptDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFonts(t, dir, "vga.ttf", "notes.txt")

	cfg, out, err := resolveWith(t, nil, "\n\n\n\n\n\n", dir)
	if err != nil {
		t.Fatal(err)
	}
	want := RenderConfig{
		FontPath: filepath.Join(dir, "vga.ttf"), CharHeight: 16, CharsFrom: 0, CharsTo: 255,
		GridCols: 16, GridRows: 16, CellWidth: 8, CellHeight: 16,
		GridLines: true, Preview: true,
	}
	if cfg != want {
		t.Errorf("Resolve() = %+v, want %+v", cfg, want)
	}
	if !strings.Contains(out, "Using font: vga.ttf") {
		t.Errorf("output %q does not announce the font", out)
	}
}

func TestResolvePromptAnswers(t *testing.T) {
	dir := t.TempDir()
	writeFonts(t, dir, "vga.ttf")

	cfg, _, err := resolveWith(t, []string{"--grid", "16x8"}, "12\n65-90\n9x12\nNo\nY\n", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CharHeight != 12 || cfg.CharsFrom != 65 || cfg.CharsTo != 90 {
		t.Errorf("height/range = %d %d-%d", cfg.CharHeight, cfg.CharsFrom, cfg.CharsTo)
	}
	if cfg.GridCols != 16 || cfg.GridRows != 8 || cfg.CellWidth != 9 || cfg.CellHeight != 12 {
		t.Errorf("grid = %dx%d cell %dx%d", cfg.GridCols, cfg.GridRows, cfg.CellWidth, cfg.CellHeight)
	}
	if cfg.GridLines || !cfg.Preview {
		t.Errorf("gridlines = %v preview = %v", cfg.GridLines, cfg.Preview)
	}
}

func TestResolveEOFUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFonts(t, dir, "vga.ttf")

	cfg, _, err := resolveWith(t, []string{"--gridlines"}, "", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CharHeight != 16 || !cfg.GridLines || !cfg.Preview {
		t.Errorf("Resolve() = %+v", cfg)
	}
}

func TestResolveBoolAnswers(t *testing.T) {
	for answer, want := range map[string]bool{
		"": true, "1": true, "yes": true, "Y": true, "YES": true,
		"0": false, "no": false, "n": false, "N": false,
	} {
		dir := t.TempDir()
		writeFonts(t, dir, "a.ttf")
		cfg, _, err := resolveWith(t, []string{"--charHeight", "8", "--chars", "0-9", "--grid", "4x4", "--gridcell", "4x4", "--preview"}, answer+"\n", dir)
		if err != nil {
			t.Fatalf("answer %q: %v", answer, err)
		}
		if cfg.GridLines != want {
			t.Errorf("answer %q: gridlines = %v, want %v", answer, cfg.GridLines, want)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	writeFonts(t, dir, "a.ttf", "b.otf", "c.TTC")
	empty := t.TempDir()

	tests := []struct {
		name  string
		args  []string
		input string
		dirs  []string
		want  string
	}{
		{"missing font flag file", []string{"--font", filepath.Join(dir, "nope.ttf")}, "", nil, "font file not found"},
		{"font flag is a dir", []string{"--font", dir}, "", nil, "font file not found"},
		{"no fonts", nil, "", []string{empty}, "no font files"},
		{"choice out of range", nil, "4\n", []string{dir}, "invalid font choice"},
		{"choice zero", nil, "0\n", []string{dir}, "invalid font choice"},
		{"choice not a number", nil, "b\n", []string{dir}, "invalid font choice"},
		{"bad height flag", []string{"--charHeight", "x"}, "", []string{dir}, "charHeight must be an integer"},
		{"bad height prompt", nil, "1\n-2\n", []string{dir}, "charHeight must be positive"},
		{"reversed chars flag", []string{"--chars", "200-10"}, "1\n\n", []string{dir}, "reversed"},
		{"reversed chars prompt", nil, "1\n\n200-10\n", []string{dir}, "reversed"},
		{"bad grid", []string{"--grid", "16*16"}, "1\n\n\n", []string{dir}, "grid format must be WxH"},
		{"bad gridcell", []string{"--gridcell", "8x0"}, "1\n\n\n\n", []string{dir}, "gridcell height must be positive"},
		{"huge charHeight", []string{"--charHeight", "5000"}, "1\n", []string{dir}, "charHeight must be at most 4096"},
		{"huge gridcell", []string{"--gridcell", "4611686018427387904x1"}, "1\n\n\n\n", []string{dir}, "gridcell width must be at most 4096"},
		{"sheet too large", []string{"--grid", "4096x4096", "--gridcell", "64x64", "--gridlines"}, "1\n\n\n", []string{dir}, "sheet would be 266241x266241 pixels"},
		{"bad bool", []string{"--charHeight", "8", "--chars", "0-1", "--grid", "1x1", "--gridcell", "1x1"}, "1\nmaybe\n", []string{dir}, "invalid answer for gridlines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := resolveWith(t, tt.args, tt.input, tt.dirs...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Resolve() error = %v, want %q", err, tt.want)
			}
			if !isUsageError(err) {
				t.Errorf("Resolve() error is %T, want *UsageError", err)
			}
		})
	}
}

func TestResolveFontMenu(t *testing.T) {
	dir := t.TempDir()
	writeFonts(t, dir, "b.ttf", "a.ttf", "c.otf")

	cfg, out, err := resolveWith(t, []string{"--charHeight", "8", "--chars", "0-1", "--grid", "1x1", "--gridcell", "1x1", "--gridlines", "--preview"}, "2\n", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FontPath != filepath.Join(dir, "b.ttf") {
		t.Errorf("FontPath = %s, want b.ttf", cfg.FontPath)
	}
	for _, s := range []string{"1: a.ttf", "2: b.ttf", "3: c.otf"} {
		if !strings.Contains(out, s) {
			t.Errorf("menu %q lacks %q", out, s)
		}
	}
}

func TestFindFontsFallsBackToNextDir(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeFonts(t, second, "x.ttf")

	names, dir := findFonts([]string{first, second, second})
	if len(names) != 1 || names[0] != "x.ttf" || dir != second {
		t.Errorf("findFonts() = %v in %s", names, dir)
	}
}
