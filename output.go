package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
)

// writeFileAtomic writes data next to path and renames it into place, so a
// reader never sees a half-written sheet or record.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func encodePNG(img image.Image) ([]byte, error) {
	out := &bytes.Buffer{}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	out := &bytes.Buffer{}
	if err := webp.Encode(out, img, &webp.Options{Lossless: true}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
