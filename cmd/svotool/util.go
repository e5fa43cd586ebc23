package main

import (
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"
)

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// writePNG encodes img to w and closes it, returning the close error.
func writePNG(w io.WriteCloser, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
