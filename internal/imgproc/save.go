package imgproc

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// FilteredSuffix is inserted between the file stem and extension of the
// source path to build the output path.
const FilteredSuffix = "_filtered"

const jpegQuality = 95

type encodeFunc func(w io.Writer, img image.Image) error

var encoders = map[string]encodeFunc{
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".png":  png.Encode,
	".gif":  func(w io.Writer, img image.Image) error { return gif.Encode(w, img, nil) },
	".bmp":  bmp.Encode,
	".tif":  func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) },
	".tiff": func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) },
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
}

// SaveOptions controls how values are mapped to 8-bit pixels on save.
type SaveOptions struct {
	// Normalize stretches the grid's value range onto 0-255. When false,
	// values are rounded and clamped to 0-255.
	Normalize bool
}

// SavePath returns the output path derived from src. Extensions without an
// encoder are replaced by ".png".
func SavePath(src string) string {
	ext := filepath.Ext(src)
	stem := strings.TrimSuffix(src, ext)
	if _, ok := encoders[strings.ToLower(ext)]; !ok {
		ext = ".png"
	}
	return stem + FilteredSuffix + ext
}

// Save writes the grid next to its source file with clamped values and
// returns the output path.
func (g *Grid) Save() (string, error) {
	return g.SaveWith(SaveOptions{})
}

// SaveWith writes the grid next to its source file and returns the output
// path. The source file is never overwritten.
func (g *Grid) SaveWith(opts SaveOptions) (string, error) {
	if g.path == "" {
		return "", &WriteError{Err: errors.New("grid has no source path")}
	}
	return g.SaveAs(SavePath(g.path), opts)
}

// SaveAs writes the grid to path, choosing the encoder from its extension.
// A partially written file is removed on failure.
func (g *Grid) SaveAs(path string, opts SaveOptions) (string, error) {
	if g.Empty() {
		return "", ErrEmptyGrid
	}
	if g.path != "" && filepath.Clean(path) == filepath.Clean(g.path) {
		return "", &WriteError{Path: path, Err: errors.New("refusing to overwrite source image")}
	}
	enc, ok := encoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		enc = png.Encode
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	if err := enc(f, g.Image(opts)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &WriteError{Path: path, Err: err}
	}
	return path, nil
}

// Image renders the grid as an 8-bit grayscale image.
func (g *Grid) Image(opts SaveOptions) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width(), g.Height()))
	lo, hi := g.valueRange()
	stretch := opts.Normalize && hi > lo
	for y, row := range g.rows {
		for x, v := range row {
			if stretch {
				v = (v - lo) / (hi - lo) * 255
			}
			img.SetGray(x, y, color.Gray{Y: toByte(v)})
		}
	}
	return img
}

func (g *Grid) valueRange() (lo, hi float64) {
	if g.Empty() {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range g.rows {
		lo = min(lo, slices.Min(row))
		hi = max(hi, slices.Max(row))
	}
	return lo, hi
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
