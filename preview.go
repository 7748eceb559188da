package main

import (
	"image"
	"os/exec"
	"runtime"

	"github.com/nfnt/resize"
)

type launchFunc func(path string) error

// openFile hands path to the desktop's default viewer and does not wait for it.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

// scalePreview enlarges img by an integer factor keeping hard pixel edges.
func scalePreview(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*scale), uint(b.Dy()*scale), img, resize.NearestNeighbor)
}
